package radio

// snrEfficiencyRow is one row of the DVB-S2 adaptive coding table: the
// minimum SNR (dB) at which this (spectral efficiency, code rate)
// combination may be used. Rows must stay sorted ascending by SNR.
//
// Source: ETSI EN 302 307, table 13; row selection algorithm and pruning
// (monotonic-increasing subset) from the original imaginglink.py.
type snrEfficiencyRow struct {
	snrThreshold      float64
	spectralEfficiency float64
	codeRate          float64
}

var imagingSNRToEfficiency = []snrEfficiencyRow{
	{-2.35, 0.490243, 1.0 / 4}, // QPSK 1/4
	{-1.24, 0.56448, 1.0 / 3},  // QPSK 1/3
	{-0.30, 0.789412, 2.0 / 5}, // QPSK 2/5
	{1.00, 0.988858, 1.0 / 2},  // QPSK 1/2
	{2.23, 1.188304, 3.0 / 5},  // QPSK 3/5
	{3.10, 1.322253, 2.0 / 3},  // QPSK 2/3
	{4.03, 1.487473, 3.0 / 4},  // QPSK 3/4
	{4.68, 1.587196, 4.0 / 5},  // QPSK 4/5
	{5.18, 1.654663, 5.0 / 6},  // QPSK 5/6
	{6.20, 1.766451, 8.0 / 9},  // QPSK 8/9
	{6.42, 1.788612, 9.0 / 10}, // QPSK 9/10
	{6.62, 1.980636, 2.0 / 3},  // 8PSK 2/3
	{7.91, 2.228124, 3.0 / 4},  // 8PSK 3/4
	{9.35, 2.478562, 5.0 / 6},  // 8PSK 5/6
	{10.21, 2.966728, 3.0 / 4}, // 16APSK 3/4
	{11.03, 3.165623, 4.0 / 5}, // 16APSK 4/5
	{11.61, 3.300184, 5.0 / 6}, // 16APSK 5/6
	{12.73, 3.703295, 3.0 / 4}, // 32APSK 3/4
	{13.64, 3.951571, 4.0 / 5}, // 32APSK 4/5
	{14.28, 4.119540, 5.0 / 6}, // 32APSK 5/6
	{15.69, 4.397854, 8.0 / 9}, // 32APSK 8/9
	{16.05, 4.453027, 9.0 / 10}, // 32APSK 9/10
}

// imagingTimeOnAirMillisAt picks the highest adaptive-coding row whose
// minimum SNR is at or below snr, and computes time-on-air from the
// resulting coded data rate. Returns 0 if SNR is below every row's
// threshold; Send does not treat a zero time-on-air as a failure and still
// hands the frame to the receiver.
func imagingTimeOnAirMillisAt(p LinkPhysics, frameLengthBytes int, snr float64) float64 {
	var row snrEfficiencyRow
	found := false
	for _, r := range imagingSNRToEfficiency {
		if snr >= r.snrThreshold {
			row = r
			found = true
			continue
		}
		break
	}
	if !found {
		return 0
	}

	frameLengthBits := float64(frameLengthBytes) * 8
	uncodedDataRate := p.SymbolRate * row.spectralEfficiency
	codedDataRate := uncodedDataRate * row.codeRate * float64(p.NumChannels)
	if codedDataRate <= 0 {
		return 0
	}
	return (frameLengthBits / codedDataRate) * 1000
}

// imagingPER reproduces the original's get_PERFromBER for the imaging
// link: a fixed 10^-7 for the one frame size (64800 bits / 64000 data
// bits per the DVB-S2 frame the model was fit to) it supports, 0
// otherwise (the TODO in imaginglink.py for other sizes is preserved).
func imagingPER(sizeBytes int) float64 {
	if sizeBytes*8 != 64800 {
		return 0
	}
	return 1e-7
}
