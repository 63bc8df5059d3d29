package nn

// Demo-tier models with weight constants embedded at deployment. These are
// kept as their own variants, separate from externally supplied weight
// blobs, and are never mixed: each constant set is only meaningful under
// the descriptor it ships with.

// demoBlob packs int8 constants into the canonical blob layout.
func demoBlob(segments ...[]int8) []byte {
	var blob []byte
	for _, seg := range segments {
		for _, w := range seg {
			blob = append(blob, byte(w))
		}
	}
	return blob
}

// DemoTrendModel is the 4→3→2 model over the oracle-only feature vector
// (price_vs_sma, momentum, volatility, trend). Raw unsigned inputs, raw
// accumulation, input-major weight interleave in both layers.
func DemoTrendModel() *Model {
	hiddenW := []int8{23, -12, 1, -41, -10, 0, -127, -12, 1, 76, -21, 1}
	hiddenB := []int8{61, 127, 123}
	outW := []int8{-1, 0, -49, 6, 50, 127}
	outB := []int8{-7, 127}

	m, err := New(Spec{
		Topology:    Topology{Inputs: 4, Hidden: 3, Outputs: 2},
		Input:       RawInput,
		Arith:       RawAccumulate,
		HiddenOrder: InputMajor,
		OutputOrder: InputMajor,
	}, demoBlob(hiddenW, hiddenB, outW, outB))
	if err != nil {
		panic(err) // constants and descriptor are fixed together
	}
	return m
}

// DemoSpreadModel is the 6→3→2 model over the v2 feature vector, split at
// deployment into an encoder and a decoder stage. Both layers are
// unit-major: each hidden unit owns six consecutive encoder weights, each
// output owns three consecutive decoder weights.
func DemoSpreadModel() *Model {
	hiddenW := []int8{
		10, -5, 2, -8, 15, -3,
		-12, 8, -1, 5, -10, 6,
		3, -7, 12, -2, 8, -9,
	}
	hiddenB := []int8{50, 60, 45}
	outW := []int8{5, 125, -35, 25, -8, -46}
	outB := []int8{-51, 0}

	m, err := New(Spec{
		Topology:    Topology{Inputs: 6, Hidden: 3, Outputs: 2},
		Input:       RawInput,
		Arith:       RawAccumulate,
		HiddenOrder: UnitMajor,
		OutputOrder: UnitMajor,
	}, demoBlob(hiddenW, hiddenB, outW, outB))
	if err != nil {
		panic(err)
	}
	return m
}

// TrainedDirectionBlob is the exported 6→8→1 binary-direction weight blob
// (48 hidden weights, 8 hidden biases, 8 output weights, 1 output bias).
func TrainedDirectionBlob() []byte {
	hiddenW := []int8{
		33, -16, 45, 105, -18, -14,
		112, 51, -34, 26, -30, -32,
		12, -127, -112, -42, -57, 17,
		-54, -86, 107, -11, 5, -76,
		-41, -8, -76, 24, -47, -13,
		-32, 123, -5, -93, 57, -80,
		13, -124, -78, 5, 49, 26,
		-11, -1, -96, -45, -39, 55,
	}
	hiddenB := []int8{-76, 34, -48, -67, -36, -26, 4, -127}
	outW := []int8{-25, -127, -4, -22, -59, 11, 42, 14}
	outB := []int8{-127}
	return demoBlob(hiddenW, hiddenB, outW, outB)
}

// TrainedDirectionSpec describes blobs exported by the training pipeline:
// centered inputs, scale-128 fixed point, unit-major layout.
func TrainedDirectionSpec() Spec {
	return Spec{
		Topology:    Topology{Inputs: 6, Hidden: 8, Outputs: 1},
		Input:       CenteredInput,
		Arith:       Scaled128,
		HiddenOrder: UnitMajor,
		OutputOrder: UnitMajor,
	}
}

// TrainedDirectionModel binds the exported blob to its descriptor.
func TrainedDirectionModel() *Model {
	m, err := New(TrainedDirectionSpec(), TrainedDirectionBlob())
	if err != nil {
		panic(err)
	}
	return m
}
