package radio

import "math"

// berThresholdEntry is one (SNR threshold, BER) row of the per-SF BER
// step function. Entries are tried in the listed order, the first whose
// threshold the measured SNR exceeds wins — so order matters and mirrors
// the original's dict-insertion-order iteration exactly.
//
// Source: Elshabrawy & Robert, "Analysis of BER and Coverage Performance
// of LoRa Modulation under Same Spreading Factor Interference", PIMRC 2018.
type berThresholdEntry struct {
	snrThreshold float64
	ber          float64
}

var sfToBERTable = map[int][]berThresholdEntry{
	7: {
		{-6.5, .1e-4}, {-7, .8e-4}, {-8, .8e-3}, {-10, 1.1e-2},
		{-12, .1}, {-14, .2}, {-16, .3}, {-18, .4}, {-24, .5},
	},
	8: {
		{-8, .8e-5}, {-9, .2e-4}, {-10, 1.1e-4}, {-12, .8e-2},
		{-14, .7e-1}, {-16, .1}, {-18, .3}, {-24, .5},
	},
	9: {
		{-12, 1e-5}, {-13, 1.1e-4}, {-14, 1.1e-3}, {-15, 1e-2},
		{-16, .3e-1}, {-18, .1}, {-20, .3}, {-22, .4}, {-24, .5},
	},
	10: {
		{-15, 1e-4}, {-16, 1.1e-4}, {-17, 1.3e-3}, {-18, .1e-1},
		{-20, .1}, {-22, .2}, {-24, .3},
	},
	11: {
		{-18, 1.2e-5}, {-19, 1.4e-4}, {-20, 1.4e-3}, {-21, 1.1e-2},
		{-22, .8e-1}, {-24, .1},
	},
	12: {
		{-21, 1.4e-5}, {-22, .9e-3}, {-24, 1.2e-2},
	},
}

// BER returns the bit error rate for the given spreading factor at the
// given SNR (dB), via the step-function table above. ok is false if sf is
// unsupported.
func BER(sf int, snr float64) (ber float64, ok bool) {
	table, ok := sfToBERTable[sf]
	if !ok {
		return 0, false
	}
	for _, e := range table {
		if snr > e.snrThreshold {
			return e.ber, true
		}
	}
	return 1, true
}

// mdiTable is the minimum-detectable-signal floor in dBm per spreading
// factor. Source: Cuomo et al., "Performance evaluation of LoRa
// considering scenario conditions", Sensors 18, no. 3 (2018): 772.
var mdiTable = map[int]float64{
	7: -123.0, 8: -126.0, 9: -129.0, 10: -132.0, 11: -133.0, 12: -136.0,
}

// pdrCurve holds the SNR bounds and polynomial coefficients (highest
// degree first) of the fitted packet-delivery-ratio curve for one
// spreading factor. Source: Tong, Shen, Liu & Wang, "Combating link
// dynamics for reliable LoRa connection in urban settings", MobiCom 2021.
type pdrCurve struct {
	lowerSNR, upperSNR float64
	coeffs             []float64 // degree 6, highest power first
}

var snrPDRTable = map[int]pdrCurve{
	12: {-25, -21, []float64{-5e-10, 9e-8, -6e-6, 0.0001, 0.0003, -0.0094, 0.02}},
	11: {-23.2, -20.45, []float64{-6e-10, 1e-7, -1e-5, 0.0004, -0.0054, 0.0259, -0.0271}},
	// SF10's source table has only 6 coefficients (degree 5), not 7 like
	// the other SFs: the original Python list literal
	// "[0.0233 -0.0337]" is a subtraction, not two elements. Reproduced
	// byte-for-byte including this asymmetry.
	10: {-21.98, -19.32, []float64{-5e-11, 4e-8, -5e-6, 0.0002, 0.004, 0.0233 - 0.0337}},
	9:  {-19.8, -16.75, []float64{-1e-10, 5e-8, -6e-6, 0.0003, 0.0047, 0.0286, -0.0428}},
	8:  {-18.02, -15.32, []float64{3e-10, -6e-8, 3e-6, -5e-5, 0.0002, 0.0063, -0.0156}},
	7:  {-16.96, -13.4, []float64{-2e-11, 4e-9, -7e-7, 6e-5, 0.0015, 0.0119, -0.0216}},
}

// PLR computes the LoRa packet loss rate for a link with the given rssi
// (dBW) and snr (dB) at spreading factor sf, per spec.md §4.3's "RSSI-
// floor check and a per-SF fitted polynomial".
func PLR(sf int, rssi, snr float64) float64 {
	floor, ok := mdiTable[sf]
	if !ok {
		return 1.0
	}
	if (rssi + 30) <= floor {
		return 1.0
	}
	curve, ok := snrPDRTable[sf]
	if !ok {
		return 1.0
	}
	if snr < curve.lowerSNR {
		return 1.0
	}
	if snr > curve.upperSNR {
		return 0.0
	}
	pdr := 0.0
	power := float64(len(curve.coeffs) - 1)
	for _, c := range curve.coeffs {
		pdr += c * math.Pow(snr, power)
		power--
	}
	if pdr < 0 {
		pdr = 0
	}
	if pdr > 1 {
		pdr = 1
	}
	return 1 - pdr
}

// LoRaTimeOnAirMillis computes the SX127x time-on-air in milliseconds for
// a frame of frameLengthBytes under the given physics parameters.
func LoRaTimeOnAirMillis(p LinkPhysics, frameLengthBytes int) float64 {
	bw := p.Bandwidth
	sf := p.SpreadingFactor
	codingRate := p.CodingRate
	preamble := float64(p.Preamble)

	symbolTime := math.Pow(2, float64(sf)) / bw

	lowDataRateOptimize := 0.0
	lowDataRateBits := 0.0
	if sf <= 6 {
		lowDataRateOptimize = 2
		lowDataRateBits = 8
	}
	preambleTime := (preamble + 4.25 + lowDataRateOptimize) * symbolTime

	dataLength := math.Ceil((8*float64(frameLengthBytes)+16+20-4*float64(sf)+8-lowDataRateBits)/(4*float64(sf))) * codingRate
	payloadTime := dataLength * symbolTime
	headerTime := 8 * symbolTime

	totalToA := preambleTime + headerTime + payloadTime
	return totalToA * 1000
}
