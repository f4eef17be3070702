package playlist

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyTitle      = errors.New("song title cannot be empty")
	ErrEmptyYouTubeURL = errors.New("song YouTube URL cannot be empty")
	ErrInvalidYouTube  = errors.New("song URL is not a recognizable YouTube link")
	ErrEmptyPlaylist   = errors.New("playlist has no playable songs")
)

// Song is one entry of the storefront's background-music playlist.
type Song struct {
	ID         string
	Title      string
	Artist     string
	YouTubeURL string
	IsActive   bool
	PlayOrder  int
	CreatedAt  time.Time
}

// youtubeIDPattern matches watch, embed, shortened and bare-v YouTube URL
// forms and captures the 11-character video ID.
var youtubeIDPattern = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)

// ExtractYouTubeID returns the 11-character video ID from a YouTube URL, or
// an empty string when the URL carries none.
// PRE: none
// POST: result is "" or exactly 11 characters
func ExtractYouTubeID(url string) string {
	m := youtubeIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// Validate checks if the Song has valid data.
// PRE: Song struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Song) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(s.YouTubeURL) == "" {
		return ErrEmptyYouTubeURL
	}
	if ExtractYouTubeID(s.YouTubeURL) == "" {
		return ErrInvalidYouTube
	}
	return nil
}

// VideoID returns the song's YouTube video ID.
// INVARIANT: Song fields are not mutated
func (s *Song) VideoID() string {
	return ExtractYouTubeID(s.YouTubeURL)
}

// Player rotates through a playlist, skipping songs whose video link is
// broken or has been reported failed. When every song has failed once the
// failed set resets so the rotation can retry from scratch.
type Player struct {
	songs   []Song
	current int
	failed  map[string]bool
}

// NewPlayer builds a player over the active songs, ordered by PlayOrder.
// Inactive songs never enter the rotation.
// PRE: none
// POST: rotation order is PlayOrder ascending (stable for ties)
func NewPlayer(songs []Song) *Player {
	active := make([]Song, 0, len(songs))
	for _, s := range songs {
		if s.IsActive {
			active = append(active, s)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].PlayOrder < active[j].PlayOrder
	})
	return &Player{songs: active, failed: make(map[string]bool)}
}

// Len returns the number of songs in the rotation.
func (p *Player) Len() int {
	return len(p.songs)
}

// Current returns the song at the rotation cursor.
// PRE: none
// POST: ok is false only when the rotation is empty
func (p *Player) Current() (Song, bool) {
	if len(p.songs) == 0 {
		return Song{}, false
	}
	return p.songs[p.current], true
}

// ReportError marks a song as failed so the rotation skips it. Unknown IDs
// are a silent no-op.
// PRE: none
// POST: song excluded from rotation until the failed set resets
func (p *Player) ReportError(songID string) {
	for _, s := range p.songs {
		if s.ID == songID {
			p.failed[songID] = true
			return
		}
	}
}

// Next advances the cursor to the next playable song: one with a valid
// video ID that has not been reported failed. Songs with unextractable IDs
// are recorded as failed on the way past. If the scan finds every song
// failed, the failed set is cleared and the scan restarts once, so a fully
// failed playlist retries instead of stopping forever.
// PRE: none
// POST: on success the cursor points at a playable song
func (p *Player) Next() (Song, error) {
	if len(p.songs) == 0 {
		return Song{}, ErrEmptyPlaylist
	}

	reset := false
	idx := (p.current + 1) % len(p.songs)
	for attempts := 0; attempts < 2*len(p.songs); attempts++ {
		song := p.songs[idx]

		if song.VideoID() == "" {
			p.failed[song.ID] = true
		}

		if len(p.failed) >= len(p.songs) {
			if reset {
				break
			}
			reset = true
			p.failed = make(map[string]bool)
			continue
		}

		if p.failed[song.ID] {
			idx = (idx + 1) % len(p.songs)
			continue
		}

		p.current = idx
		return song, nil
	}
	return Song{}, ErrEmptyPlaylist
}
