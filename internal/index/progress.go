package index

// progress counts file tasks. Guarded by the Indexer data lock.
type progress struct {
	filesIndexed      int // file tasks finished, whatever their outcome
	totalFilesToIndex int // file tasks queued since the last reset
}

func (p *progress) addTotal(n int) {
	p.totalFilesToIndex += n
}

func (p *progress) fileDone() {
	p.filesIndexed++
}

func (p *progress) reset() {
	*p = progress{}
}

// fraction returns filesIndexed/totalFilesToIndex in [0, 1]. Nothing queued yet counts as 0.
func (p *progress) fraction() float64 {
	if p.totalFilesToIndex <= 0 {
		return 0
	}
	f := float64(p.filesIndexed) / float64(p.totalFilesToIndex)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
