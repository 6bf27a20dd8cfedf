package movie

import (
	"sync"

	"moviegen/internal/domain"
	"moviegen/internal/video"
)

// Display is the append-only list of rendered scene clips plus the
// results-area visibility flag. Clips arrive strictly in scene order within
// a run.
type Display struct {
	mu      sync.RWMutex
	clips   []video.Clip
	visible bool
}

func NewDisplay() *Display {
	return &Display{}
}

// Append adds a clip to the end of the list. The results area becomes visible
// when the clip for scene index 0 lands; clips at later indexes never affect
// visibility. That is the literal product behavior: should scene 0 ever be
// skipped, later scenes do not retroactively reveal the results area.
func (d *Display) Append(clip video.Clip) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clips = append(d.clips, clip)
	if clip.Scene == 0 {
		d.visible = true
	}
}

// Reset clears the clip list and hides the results area, called when a new
// run starts.
func (d *Display) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clips = nil
	d.visible = false
}

// Visible reports whether the results area is shown.
func (d *Display) Visible() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.visible
}

// Clips returns a snapshot of the rendered clips in display order.
func (d *Display) Clips() []video.Clip {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]video.Clip, len(d.clips))
	copy(out, d.clips)
	return out
}

// Clip returns the clip at the given display position.
func (d *Display) Clip(index int) (video.Clip, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if index < 0 || index >= len(d.clips) {
		return video.Clip{}, domain.ErrNotFound
	}
	return d.clips[index], nil
}

// Len returns the number of rendered clips.
func (d *Display) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.clips)
}
