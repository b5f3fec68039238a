package audio

import (
	"errors"
	"sync"
)

// Assets names the four clip files. An empty path means "not provided".
type Assets struct {
	Start string `yaml:"start"`
	Loop  string `yaml:"loop"`
	Rev   string `yaml:"rev"`
	Tail  string `yaml:"tail"`
}

func (a Assets) path(k StreamKind) string {
	switch k {
	case StreamStart:
		return a.Start
	case StreamLoop:
		return a.Loop
	case StreamRev:
		return a.Rev
	case StreamTail:
		return a.Tail
	}
	return ""
}

// Bank holds the decoded clip for each stream. A nil entry means the stream
// is unavailable and every operation that needs it degrades.
type Bank struct {
	buf [numStreams]*Buffer
}

// NewBank returns an empty bank.
func NewBank() *Bank { return &Bank{} }

// Set stores buf for kind.
func (b *Bank) Set(kind StreamKind, buf *Buffer) {
	if kind >= 0 && kind < numStreams {
		b.buf[kind] = buf
	}
}

// Get returns the clip for kind, or nil.
func (b *Bank) Get(kind StreamKind) *Buffer {
	if b == nil || kind < 0 || kind >= numStreams {
		return nil
	}
	return b.buf[kind]
}

// Has reports whether kind has a usable clip.
func (b *Bank) Has(kind StreamKind) bool {
	return b.Get(kind).Frames() > 0
}

// LoadBank decodes every asset concurrently. Failures are logged as
// warnings and leave the stream empty, unless synthesize is set, in which
// case the procedural clip takes its place.
func LoadBank(assets Assets, rate int, synthesize bool, log Logger) *Bank {
	if log == nil {
		log = nopLogger{}
	}
	b := NewBank()
	var wg sync.WaitGroup
	for _, k := range Kinds() {
		wg.Add(1)
		go func(k StreamKind) {
			defer wg.Done()
			path := assets.path(k)
			var (
				buf *Buffer
				err error
			)
			if path == "" {
				err = errors.New("no path configured")
			} else {
				buf, err = DecodeFile(path, rate)
			}
			if err != nil {
				if !synthesize {
					log.Warnf("%s clip unavailable: %v", k, err)
					return
				}
				log.Infof("%s clip unavailable (%v), using synthesized engine sound", k, err)
				buf = Synthesize(k, rate)
			}
			b.buf[k] = buf
			log.Debugf("%s clip ready: %s, %.2fs", k, buf.Name, buf.Seconds())
		}(k)
	}
	wg.Wait()
	return b
}
