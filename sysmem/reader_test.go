package sysmem

import (
	"testing"

	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

type testBuffer struct {
	data   []byte
	mapErr error
}

func (b *testBuffer) Map() ([]byte, error) {
	if b.mapErr != nil {
		return nil, b.mapErr
	}
	return b.data, nil
}

func testSettings() BufferSettings {
	return BufferSettings{
		ImageFormat: &ImageFormatConstraints{
			PixelFormat:        frame.FormatI420,
			MinCodedWidth:      640,
			MinCodedHeight:     480,
			CodedWidthDivisor:  2,
			CodedHeightDivisor: 2,
			MinBytesPerRow:     640,
			BytesPerRowDivisor: 16,
		},
	}
}

func TestReaderMapsAllBuffersUpFront(t *testing.T) {
	first := []byte{1, 2, 3}
	second := []byte{4, 5, 6}
	rdr, err := NewReader(testSettings(), []Buffer{
		&testBuffer{data: first},
		&testBuffer{data: second},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rdr.BufferCount(), test.ShouldEqual, 2)

	m0, err := rdr.Mapping(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m0, test.ShouldResemble, first)
	m1, err := rdr.Mapping(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m1, test.ShouldResemble, second)
}

func TestReaderInvalidIndex(t *testing.T) {
	rdr, err := NewReader(testSettings(), []Buffer{&testBuffer{data: []byte{1}}})
	test.That(t, err, test.ShouldBeNil)

	_, err = rdr.Mapping(1)
	test.That(t, errors.Is(err, ErrInvalidBufferIndex), test.ShouldBeTrue)
	_, err = rdr.Mapping(-1)
	test.That(t, errors.Is(err, ErrInvalidBufferIndex), test.ShouldBeTrue)
}

func TestReaderMapFailure(t *testing.T) {
	mapErr := errors.New("vmo mapping failed")
	_, err := NewReader(testSettings(), []Buffer{
		&testBuffer{data: []byte{1}},
		&testBuffer{mapErr: mapErr},
	})
	test.That(t, errors.Is(err, mapErr), test.ShouldBeTrue)
}

func TestReaderSettings(t *testing.T) {
	settings := testSettings()
	rdr, err := NewReader(settings, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rdr.Settings(), test.ShouldResemble, settings)
	test.That(t, rdr.BufferCount(), test.ShouldEqual, 0)
}

// Negotiating twice with identical constraints must produce functionally
// equivalent readers.
func TestReaderRenegotiationEquivalence(t *testing.T) {
	buffers := func() []Buffer {
		return []Buffer{
			&testBuffer{data: make([]byte, 16)},
			&testBuffer{data: make([]byte, 16)},
		}
	}
	first, err := NewReader(testSettings(), buffers())
	test.That(t, err, test.ShouldBeNil)
	second, err := NewReader(testSettings(), buffers())
	test.That(t, err, test.ShouldBeNil)

	test.That(t, second.BufferCount(), test.ShouldEqual, first.BufferCount())
	test.That(t, second.Settings(), test.ShouldResemble, first.Settings())
}
