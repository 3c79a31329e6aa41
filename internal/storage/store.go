// Package storage keeps captured frames on disk, one directory per capture.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/wrjanan/chladni/internal/pattern"
)

var ErrNotFound = errors.New("chladni: capture not found")

const (
	metadataFile = "metadata.json"
	frameFile    = "frame.png"
	animFile     = "frames.gif"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type Metadata struct {
	ID                 string    `json:"id"`
	Kind               string    `json:"kind"`
	Timestamp          time.Time `json:"timestamp"`
	Seed               int64     `json:"seed"`
	ParticleCount      int       `json:"particle_count"`
	VibrationIntensity float64   `json:"vibration_intensity"`
	PullIntensity      float64   `json:"pull_intensity"`
	ModeN              int       `json:"mode_n"`
	ModeM              int       `json:"mode_m"`
	Width              int       `json:"width"`
	Height             int       `json:"height"`
	Frames             int       `json:"frames"`
	Bound              bool      `json:"bound"`
}

func (m Metadata) Params() pattern.Params {
	return pattern.Params{
		Seed:               m.Seed,
		ParticleCount:      m.ParticleCount,
		VibrationIntensity: m.VibrationIntensity,
		PullIntensity:      m.PullIntensity,
		ModeN:              m.ModeN,
		ModeM:              m.ModeM,
	}
}

func newMetadata(kind string, p pattern.Params, ts time.Time) Metadata {
	return Metadata{
		Kind:               kind,
		Timestamp:          ts,
		Seed:               p.Seed,
		ParticleCount:      p.ParticleCount,
		VibrationIntensity: p.VibrationIntensity,
		PullIntensity:      p.PullIntensity,
		ModeN:              p.ModeN,
		ModeM:              p.ModeM,
	}
}

// SaveFrame writes img as a PNG capture of pattern p.
func (s *Store) SaveFrame(p pattern.Params, img image.Image, bound bool) (string, error) {
	meta := newMetadata("png", p, s.now())
	b := img.Bounds()
	meta.Width, meta.Height, meta.Frames, meta.Bound = b.Dx(), b.Dy(), 1, bound

	dir, err := s.create(&meta)
	if err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(dir, frameFile), func(f *os.File) error {
		return png.Encode(f, img)
	}); err != nil {
		return "", err
	}
	return meta.ID, s.writeMetadata(dir, meta)
}

// SaveAnimation writes a recorded GIF capture of pattern p.
func (s *Store) SaveAnimation(p pattern.Params, anim *gif.GIF) (string, error) {
	if len(anim.Image) == 0 {
		return "", fmt.Errorf("saving animation: no frames")
	}
	meta := newMetadata("gif", p, s.now())
	b := anim.Image[0].Bounds()
	meta.Width, meta.Height, meta.Frames = b.Dx(), b.Dy(), len(anim.Image)

	dir, err := s.create(&meta)
	if err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(dir, animFile), func(f *os.File) error {
		return gif.EncodeAll(f, anim)
	}); err != nil {
		return "", err
	}
	return meta.ID, s.writeMetadata(dir, meta)
}

// create picks a fresh id for meta and makes its directory.
func (s *Store) create(meta *Metadata) (string, error) {
	base := fmt.Sprintf("seed%d_%s", meta.Seed, meta.Timestamp.Format("20060102-150405"))
	id := base
	for i := 2; ; i++ {
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			meta.ID = id
			return dir, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			if err := s.Init(); err != nil {
				return "", err
			}
			continue
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
		id = fmt.Sprintf("%s_%d", base, i)
	}
}

func (s *Store) writeMetadata(dir string, meta Metadata) error {
	return writeFile(filepath.Join(dir, metadataFile), func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// List returns every readable capture, oldest first.
func (s *Store) List() ([]Metadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Metadata{}, nil
		}
		return nil, err
	}

	caps := make([]Metadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		caps = append(caps, *meta)
	}
	sort.Slice(caps, func(i, j int) bool {
		if caps[i].Timestamp.Equal(caps[j].Timestamp) {
			return caps[i].ID < caps[j].ID
		}
		return caps[i].Timestamp.Before(caps[j].Timestamp)
	})
	return caps, nil
}

func (s *Store) Load(id string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing %s metadata: %w", id, err)
	}
	return &meta, nil
}

// LoadFrame decodes the image of a PNG capture.
func (s *Store) LoadFrame(id string) (image.Image, error) {
	f, err := os.Open(filepath.Join(s.baseDir, id, frameFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

// Path returns the media file of a capture.
func (s *Store) Path(meta Metadata) string {
	name := frameFile
	if meta.Kind == "gif" {
		name = animFile
	}
	return filepath.Join(s.baseDir, meta.ID, name)
}

// Attach writes an extra file into an existing capture directory.
func (s *Store) Attach(id, name string, data []byte) error {
	if _, err := s.Load(id); err != nil {
		return err
	}
	if name != filepath.Base(name) || name == metadataFile {
		return fmt.Errorf("invalid attachment name %q", name)
	}
	return os.WriteFile(filepath.Join(s.baseDir, id, name), data, 0644)
}
