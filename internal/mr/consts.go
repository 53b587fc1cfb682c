package mr

// Physical constants and simulation defaults.
const (
	// GammaH is the gyromagnetic ratio of hydrogen in Hz/Gauss.
	GammaH = 4257.6

	// Dt0 is the default dwell time in seconds.
	Dt0 = 4e-6

	// T1Gray and T2Gray are gray-matter relaxation times in seconds,
	// used as construction defaults.
	T1Gray = 1.47
	T2Gray = 0.07
)
