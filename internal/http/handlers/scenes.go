package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"moviegen/internal/domain"
	zippkg "moviegen/pkg/zip"
)

type sceneSummary struct {
	Scene  int    `json:"scene"`
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
	MIME   string `json:"mime_type"`
	Bytes  int    `json:"bytes"`
}

type scenesResponse struct {
	Visible bool           `json:"visible"`
	Scenes  []sceneSummary `json:"scenes"`
}

// ListScenes returns the display snapshot: the results-area visibility flag
// and the rendered clips in display order.
func (a *App) ListScenes(w http.ResponseWriter, r *http.Request) {
	clips := a.Display.Clips()
	out := scenesResponse{Visible: a.Display.Visible(), Scenes: make([]sceneSummary, 0, len(clips))}
	for _, clip := range clips {
		out.Scenes = append(out.Scenes, sceneSummary{
			Scene:  clip.Scene,
			Title:  clip.Title,
			Prompt: clip.Prompt,
			MIME:   clip.MIME,
			Bytes:  len(clip.Data),
		})
	}
	a.json(w, http.StatusOK, out)
}

// SceneVideo serves the rendered clip bytes for inline playback.
func (a *App) SceneVideo(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "scene index must be a number")
		return
	}
	clip, err := a.Display.Clip(index)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "scene not rendered")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load scene")
		return
	}
	w.Header().Set("Content-Type", clip.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(clip.Data)))
	_, _ = w.Write(clip.Data)
}

// SceneArchive bundles every rendered clip into one zip download.
func (a *App) SceneArchive(w http.ResponseWriter, r *http.Request) {
	clips := a.Display.Clips()
	if len(clips) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no scenes rendered")
		return
	}
	entries := make([]zippkg.Entry, 0, len(clips))
	for _, clip := range clips {
		entries = append(entries, zippkg.Entry{
			Filename: fmt.Sprintf("scene-%d.mp4", clip.Scene+1),
			Data:     clip.Data,
		})
	}
	archive, err := zippkg.Archive(entries)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: scene archive failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="movie-scenes.zip"`)
	_, _ = w.Write(archive)
}
