package pipeline

import "sync"

// Processing tracks the files waiting for or going through the pipeline
type Processing struct {
	mu  sync.Mutex
	ids map[string]int
}

func NewProcessing() *Processing {
	return &Processing{ids: make(map[string]int)}
}

// Start marks a file as processing. Every Start needs a matching Done
func (p *Processing) Start(fileID string) {
	p.mu.Lock()
	p.ids[fileID]++
	p.mu.Unlock()
}

func (p *Processing) Done(fileID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ids[fileID] <= 1 {
		delete(p.ids, fileID)
		return
	}
	p.ids[fileID]--
}

func (p *Processing) IsProcessing(fileID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ids[fileID] > 0
}
