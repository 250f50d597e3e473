package approval

import (
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Surface is an approval surface shown to the user.
type Surface struct {
	ID        string    `json:"id"`
	RequestID string    `json:"requestId"`
	URL       string    `json:"url"`
	OpenedAt  time.Time `json:"openedAt"`
}

// LocalSurfaces hands approval requests to the local approval UI. Opening a
// surface publishes its URL; the UI reports a dismissed surface through
// Dismiss.
type LocalSurfaces struct {
	mu      sync.Mutex
	baseURL string
	open    map[string]Surface
	onClose func(surfaceID string)
}

// NewLocalSurfaces returns a SurfaceManager whose surfaces live under
// baseURL.
func NewLocalSurfaces(baseURL string) *LocalSurfaces {
	return &LocalSurfaces{
		baseURL: baseURL,
		open:    make(map[string]Surface),
	}
}

// OnClose registers the callback invoked when the user dismisses a surface.
func (s *LocalSurfaces) OnClose(fn func(surfaceID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = fn
}

func (s *LocalSurfaces) Open(req PendingRequest) error {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("surface", req.SurfaceID)
	u.RawQuery = q.Encode()

	surface := Surface{
		ID:        req.SurfaceID,
		RequestID: req.ID,
		URL:       u.String(),
		OpenedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	s.open[surface.ID] = surface
	s.mu.Unlock()

	log.Info().
		Str("surface_id", surface.ID).
		Str("method", string(req.Method)).
		Str("url", surface.URL).
		Msg("approval surface opened")
	return nil
}

// Close removes a surface on the broker's behalf. Unknown ids are ignored.
func (s *LocalSurfaces) Close(surfaceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.open, surfaceID)
}

// Dismiss closes a surface on the user's behalf and notifies the broker.
func (s *LocalSurfaces) Dismiss(surfaceID string) error {
	s.mu.Lock()
	_, ok := s.open[surfaceID]
	delete(s.open, surfaceID)
	onClose := s.onClose
	s.mu.Unlock()

	if !ok {
		return ErrSurfaceNotFound
	}
	if onClose != nil {
		onClose(surfaceID)
	}
	return nil
}

// Surfaces returns every open surface.
func (s *LocalSurfaces) Surfaces() []Surface {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Surface, 0, len(s.open))
	for _, surface := range s.open {
		out = append(out, surface)
	}
	return out
}
