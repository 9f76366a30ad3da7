package farm

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"clbench/pkg/mandel"
	"clbench/pkg/palette"

	"github.com/go-chi/valve"
	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic string
	body  []byte
}

type fakeProducer struct {
	mu   sync.Mutex
	msgs []published
}

func (f *fakeProducer) Publish(topic string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, published{topic, body})
	return nil
}

func smallFrame() mandel.Params {
	p := mandel.DefaultParams()
	p.Width, p.Height = 40, 30
	p.Step = 0.1
	return p
}

func TestCodec(t *testing.T) {
	in := &mandel.Patch{Frame: "f", Index: 2, Count: 4, Params: smallFrame(), Data: []uint32{1, 2, 3}}

	b, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, b[:2])

	out, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	plain, err := Decode([]byte(`{"frame":"g","index":1,"count":2,"params":{"width":3}}`))
	require.NoError(t, err)
	assert.Equal(t, "g", plain.Frame)
	assert.Equal(t, 3, plain.Params.Width)

	_, err = Decode([]byte("not json"))
	assert.Error(t, err)
}

func TestRequesterSend(t *testing.T) {
	p := &fakeProducer{}
	r, err := NewRequester(valve.New(), p, "frame", smallFrame(), 3)
	require.NoError(t, err)

	sent, err := r.Send()
	require.NoError(t, err)
	assert.Equal(t, 9, sent)
	require.Len(t, p.msgs, 9)

	for i, m := range p.msgs {
		assert.Equal(t, RequestTopic, m.topic)
		patch, err := Decode(m.body)
		require.NoError(t, err)
		assert.Equal(t, i, patch.Index)
		assert.Empty(t, patch.Data)
	}
}

func TestRequesterRejectsSplit(t *testing.T) {
	_, err := NewRequester(valve.New(), &fakeProducer{}, "frame", smallFrame(), 0)
	assert.ErrorIs(t, err, mandel.ErrPatch)
}

func TestGeneratorRendersPatch(t *testing.T) {
	p := &fakeProducer{}
	g := NewGenerator(valve.New(), p)

	patches, err := mandel.Split("f", smallFrame(), 2)
	require.NoError(t, err)

	body, err := Encode(&patches[1])
	require.NoError(t, err)

	require.NoError(t, g.HandleMessage(nsq.NewMessage(nsq.MessageID{}, body)))
	require.Len(t, p.msgs, 1)
	assert.Equal(t, ResponseTopic, p.msgs[0].topic)

	out, err := Decode(p.msgs[0].body)
	require.NoError(t, err)
	assert.Equal(t, mandel.Sequential(patches[1].Params), out.Data)
}

func TestGeneratorDropsBadPatch(t *testing.T) {
	p := &fakeProducer{}
	g := NewGenerator(valve.New(), p)

	body, err := Encode(&mandel.Patch{Frame: "f"})
	require.NoError(t, err)

	assert.NoError(t, g.HandleMessage(nsq.NewMessage(nsq.MessageID{}, body)))
	assert.Empty(t, p.msgs)

	assert.NoError(t, g.HandleMessage(nsq.NewMessage(nsq.MessageID{}, nil)))
	assert.Error(t, g.HandleMessage(nsq.NewMessage(nsq.MessageID{}, []byte("{"))))
}

func TestStoreStitchesFrame(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(valve.New(), dir, palette.Default)

	frame := smallFrame()
	patches, err := mandel.Split("f", frame, 2)
	require.NoError(t, err)

	for i := range patches {
		require.NoError(t, patches[i].Render(context.Background()))
	}

	// out of order, with one redelivery
	order := []int{3, 1, 1, 0, 2}
	for n, i := range order {
		body, err := Encode(&patches[i])
		require.NoError(t, err)

		require.NoError(t, s.HandleMessage(nsq.NewMessage(nsq.MessageID{}, body)))

		_, err = os.Stat(filepath.Join(dir, "f.bmp"))
		if n < len(order)-1 {
			assert.True(t, os.IsNotExist(err), "frame written early")
		} else {
			assert.NoError(t, err)
		}
	}

	for i := range patches {
		_, err := os.Stat(filepath.Join(dir, "f", patches[i].Filename()))
		assert.NoError(t, err)
	}
}

func TestStoreDropsLateRedelivery(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(valve.New(), dir, palette.Default)

	patches, err := mandel.Split("late", smallFrame(), 1)
	require.NoError(t, err)
	require.NoError(t, patches[0].Render(context.Background()))

	complete, err := s.Save(&patches[0])
	require.NoError(t, err)
	assert.True(t, complete)

	complete, err = s.Save(&patches[0])
	require.NoError(t, err)
	assert.False(t, complete)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.frames, "late patch must not start a new frame")
}

func TestStoreConcurrentSaves(t *testing.T) {
	s := NewStore(valve.New(), t.TempDir(), palette.Default)
	s.spin.Writer = ioutil.Discard
	s.spin.Start()
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		patches, err := mandel.Split(fmt.Sprintf("c%d", i), smallFrame(), 1)
		require.NoError(t, err)
		require.NoError(t, patches[0].Render(context.Background()))

		wg.Add(1)
		go func(p mandel.Patch) {
			defer wg.Done()
			complete, err := s.Save(&p)
			assert.NoError(t, err)
			assert.True(t, complete)
		}(patches[0])
	}
	wg.Wait()
}

func TestFrameOf(t *testing.T) {
	frame := smallFrame()
	frame.Width, frame.Height = 41, 29

	patches, err := mandel.Split("f", frame, 3)
	require.NoError(t, err)

	// any order
	patches[0], patches[5] = patches[5], patches[0]

	got := FrameOf(patches)
	assert.Equal(t, frame.Width, got.Width)
	assert.Equal(t, frame.Height, got.Height)
	assert.InDelta(t, frame.X0, got.X0, 1e-12)
	assert.InDelta(t, frame.Y0, got.Y0, 1e-12)
}
