package farm

import (
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"clbench/pkg/bitmap"
	"clbench/pkg/mandel"
	"clbench/pkg/palette"
	"clbench/pkg/utils"

	"github.com/briandowns/spinner"
	"github.com/go-chi/valve"
	"github.com/nsqio/go-nsq"
)

// Store saves rendered patches under Dir/<frame>/ and the stitched frame as
// Dir/<frame>.bmp once all of its patches arrived
type Store struct {
	Dir     string
	Palette palette.Palette

	valve *valve.Valve
	spin  *spinner.Spinner

	mu     sync.Mutex
	frames map[string][]mandel.Patch
	done   map[string]bool
}

// NewStore constructs a new Store instance
func NewStore(v *valve.Valve, dir string, pal palette.Palette) *Store {
	return &Store{
		Dir:     dir,
		Palette: pal,
		valve:   v,
		spin:    spinner.New(spinner.CharSets[43], 100*time.Millisecond),
		frames:  make(map[string][]mandel.Patch),
		done:    make(map[string]bool),
	}
}

// Start starts the NSQ consumer on ResponseTopic
func (s *Store) Start() {
	maxInFlight := runtime.GOMAXPROCS(0) * 2
	log.Println("[store] starting consumer on", ResponseTopic, storeChan)

	go func() {
		if err := utils.StartConsumer(s.valve.Context(), ResponseTopic, storeChan, maxInFlight, s); err != nil {
			log.Fatal(err)
		}
	}()

	s.spin.Suffix = fmt.Sprintf(" saving patches maxInFlight: %d", maxInFlight)
	s.spin.Start()
}

// Close stops the spinner
func (s *Store) Close() error {
	s.spin.Stop()
	return nil
}

// HandleMessage stores a rendered patch. A non-nil error re-queues the
// message.
func (s *Store) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	if err := s.valve.Open(); err != nil {
		log.Println("[store] failed to open valve:", err)
		return err
	}
	defer s.valve.Close()

	patch, err := Decode(m.Body)
	if err != nil {
		log.Println("[store] failed to decode patch:", err)
		return err
	}

	_, err = s.Save(patch)
	return err
}

// Save writes the patch and, when it completes its frame, the frame. It
// reports whether the frame was completed.
func (s *Store) Save(patch *mandel.Patch) (bool, error) {
	if s.completed(patch.Frame) {
		log.Println("[store] dropping patch of completed frame:", patch)
		return false, nil
	}

	w, h := patch.Params.Width, patch.Params.Height
	fpath := filepath.Join(s.Dir, patch.Frame, patch.Filename())

	if err := bitmap.Save(fpath, w, h, patch.Data, s.Palette); err != nil {
		log.Println("[store] error saving patch:", err)
		return false, err
	}
	s.spin.Lock()
	s.spin.Suffix = " saved " + fpath
	s.spin.Unlock()

	patches, complete := s.add(patch)
	if !complete {
		return false, nil
	}

	frame := FrameOf(patches)
	pix, err := mandel.Stitch(frame, patches)
	if err != nil {
		log.Println("[store] failed to stitch frame", patch.Frame, err)
		return false, err
	}

	fpath = filepath.Join(s.Dir, patch.Frame+".bmp")
	if err := bitmap.Save(fpath, frame.Width, frame.Height, pix, s.Palette); err != nil {
		log.Println("[store] error saving frame:", err)
		return false, err
	}

	log.Println("[store] frame complete:", fpath)
	return true, nil
}

// add records the patch and returns the frame's patches once all arrived
func (s *Store) add(patch *mandel.Patch) ([]mandel.Patch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done[patch.Frame] {
		return nil, false
	}

	patches := s.frames[patch.Frame]
	for _, p := range patches {
		if p.Index == patch.Index {
			// redelivered message
			return nil, false
		}
	}

	patches = append(patches, *patch)
	if len(patches) < patch.Count {
		s.frames[patch.Frame] = patches
		return nil, false
	}

	delete(s.frames, patch.Frame)
	s.done[patch.Frame] = true
	return patches, true
}

// completed reports whether every patch of frame was already stored
func (s *Store) completed(frame string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done[frame]
}

// FrameOf rebuilds the frame covered by a complete set of patches
func FrameOf(patches []mandel.Patch) mandel.Params {
	var frame mandel.Params
	for i, p := range patches {
		if i == 0 || (p.X == 0 && p.Y == 0) {
			frame = p.Params
			frame.X0, frame.Y0 = p.Params.Point(-p.X, -p.Y)
			frame.Width, frame.Height = 0, 0
		}
	}

	for _, p := range patches {
		if w := p.X + p.Params.Width; w > frame.Width {
			frame.Width = w
		}
		if h := p.Y + p.Params.Height; h > frame.Height {
			frame.Height = h
		}
	}
	return frame
}
