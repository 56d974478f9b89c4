package cepstrum

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrInvalidLength indicates an FFT length that is not an even number of at
// least two points.
var ErrInvalidLength = errors.New("cepstrum: FFT length must be even and at least 2")

// Scale selects the amplitude output of a Spectrum.
type Scale int

const (
	ScaleDecibel   Scale = iota // 20 log10 |H|
	ScaleLog                    // ln |H|
	ScaleAmplitude              // |H|
	ScalePower                  // |H|^2
)

// PhaseUnit selects the phase output of a Spectrum.
type PhaseUnit int

const (
	PhasePi     PhaseUnit = iota // arg H / π
	PhaseRadian                  // arg H
	PhaseDegree                  // arg H in degrees
)

// Spectrum evaluates H(e^jω) of mel-generalized cepstra on an n-point grid.
// It holds FFT plans and scratch space and is not safe for concurrent use.
type Spectrum struct {
	n    int
	fft  *fourier.FFT
	cep  []float64
	seq  []float64
	coef []complex128
}

// NewSpectrum returns a Spectrum for an n-point FFT. The output has n/2+1
// bins.
func NewSpectrum(n int) (*Spectrum, error) {
	if n < 2 || n%2 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	return &Spectrum{
		n:    n,
		fft:  fourier.NewFFT(n),
		cep:  make([]float64, n/2+1),
		seq:  make([]float64, n),
		coef: make([]complex128, n/2+1),
	}, nil
}

// Bins returns the number of output values per frame.
func (s *Spectrum) Bins() int { return s.n/2 + 1 }

// logSpectrum converts mgc to a plain cepstrum of order n/2 and returns
// ln H at each bin: the real part is ln|H|, the imaginary part arg H.
func (s *Spectrum) logSpectrum(mgc []float64, alpha, gamma float64) []complex128 {
	MGC2MGC(mgc, alpha, gamma, s.cep, 0, 0)
	clear(s.seq)
	copy(s.seq, s.cep)
	return s.fft.Coefficients(s.coef, s.seq)
}

// Amplitude writes Bins() amplitude values for mgc into dst.
func (s *Spectrum) Amplitude(dst, mgc []float64, alpha, gamma float64, scale Scale) {
	for i, v := range s.logSpectrum(mgc, alpha, gamma) {
		ln := real(v)
		switch scale {
		case ScaleLog:
			dst[i] = ln
		case ScaleAmplitude:
			dst[i] = math.Exp(ln)
		case ScalePower:
			dst[i] = math.Exp(2 * ln)
		default:
			dst[i] = 20 * ln / math.Ln10
		}
	}
}

// Phase writes Bins() phase values for mgc into dst. The phase is the
// unwrapped sum of the cepstral terms, not reduced to (-π, π].
func (s *Spectrum) Phase(dst, mgc []float64, alpha, gamma float64, unit PhaseUnit) {
	for i, v := range s.logSpectrum(mgc, alpha, gamma) {
		ph := imag(v)
		switch unit {
		case PhaseRadian:
			dst[i] = ph
		case PhaseDegree:
			dst[i] = ph * 180 / math.Pi
		default:
			dst[i] = ph / math.Pi
		}
	}
}
