// Package radio implements the unified LoRa/imaging radio device state
// machine: channel placement, link physics, collision/capture detection,
// and the probabilistic packet-error model. Grounded byte-for-byte on the
// original simulator's models/network/lora/loraradiodevice.py and
// lora/loralink.py, which spec.md §4.3 names as canonical.
package radio

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"
)

const speedOfLight = 3e8 // m/s; matches the original's get_PropagationDelay, not the more precise 2.998e8

// LinkPhysics parameterizes the state machine for one radio family (LoRa
// vs. imaging), per spec.md §9's unification of the two class trees.
type LinkPhysics struct {
	Family Family

	Frequency        float64 // Hz
	Bandwidth        float64 // Hz
	SpreadingFactor   int     // LoRa only
	CodingRate       float64
	Preamble         int     // symbols, LoRa only
	TxAntennaGain    float64 // dB
	TxPower          float64 // dBW
	TxLineLoss       float64 // dB
	RxAntennaGain    float64 // dB
	RxLineLoss       float64 // dB
	GainToTemperature float64 // dB/K
	BitsAllowed      int     // max bit errors tolerated (PER binomial k)
	AtmosphereLoss   float64 // dB, default 1.8 per the original's get_SNR default

	SymbolRate  float64 // baud, imaging only
	NumChannels int     // imaging only
}

// Family selects which capture/collision rule and time-on-air formula apply.
type Family int

const (
	FamilyLoRa Family = iota
	FamilyImaging
)

// DefaultAtmosphereLoss is the original's hard-coded get_SNR default when a
// radio's phy setup does not specify one.
const DefaultAtmosphereLoss = 1.8

const atmosAndOtherLossRSSI = 6 // dB, hard-coded in get_ReceivedSignalStrength, distinct from AtmosphereLoss
const boltzmannConstDB = -228.6

// FSPL returns the free-space path loss in dB for a distance in meters at
// the physics' configured frequency.
func (p LinkPhysics) FSPL(distanceMeters float64) float64 {
	distKm := distanceMeters / 1000
	freqGHz := p.Frequency / 1e9
	return 20*math.Log10(distKm) + 20*math.Log10(freqGHz) + 92.45
}

// ReceivedSignalStrength returns RSSI in dBW.
func (p LinkPhysics) ReceivedSignalStrength(distanceMeters float64) float64 {
	fspl := p.FSPL(distanceMeters)
	return p.TxPower + p.TxAntennaGain - p.TxLineLoss - fspl - atmosAndOtherLossRSSI + p.RxAntennaGain - p.RxLineLoss
}

// SNR returns the link SNR in dB.
func (p LinkPhysics) SNR(distanceMeters float64) float64 {
	fspl := p.FSPL(distanceMeters)
	eirp := p.TxPower + p.TxAntennaGain - p.TxLineLoss
	atmosLoss := p.AtmosphereLoss
	if atmosLoss == 0 {
		atmosLoss = DefaultAtmosphereLoss
	}
	return eirp - fspl - atmosLoss + p.GainToTemperature - boltzmannConstDB - 10*math.Log10(p.Bandwidth)
}

// PropagationDelay returns the one-way propagation delay in seconds.
func PropagationDelay(distanceMeters float64) float64 {
	return distanceMeters / speedOfLight
}

// DopplerShift returns the Doppler-shifted offset (Hz) of frequencyHz for a
// radial velocity of velocityMPS (positive = receding).
func DopplerShift(frequencyHz, velocityMPS float64) float64 {
	return (speedOfLight/(speedOfLight+velocityMPS))*frequencyHz - frequencyHz
}

// PERFromBER computes the packet-error rate from a per-bit error rate ber,
// a frame size in bytes, and the number of tolerated bit errors
// allowedBitsWrong, via the binomial tail formula spec.md §4.3 names.
func PERFromBER(ber float64, sizeBytes, allowedBitsWrong int) float64 {
	n := sizeBytes * 8
	if allowedBitsWrong < 0 {
		allowedBitsWrong = 0
	}
	if allowedBitsWrong > n {
		allowedBitsWrong = n
	}
	sum := 0.0
	for i := 0; i <= allowedBitsWrong; i++ {
		c := combin.Binomial(n, i)
		sum += c * math.Pow(ber, float64(i)) * math.Pow(1-ber, float64(n-i))
	}
	per := 1 - sum
	if per < 0 {
		per = 0
	}
	if per > 1 {
		per = 1
	}
	return per
}
