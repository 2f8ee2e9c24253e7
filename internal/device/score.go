package device

// Per-backend performance score heuristics. Inputs are whole MB and raw
// core or multiprocessor counts; results are clamped to [0, 1000].

const maxScore = 1000

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > maxScore {
		return maxScore
	}
	return s
}

func memGB(memMB uint64) float64 { return float64(memMB) / 1024 }

func scoreCUDA(memMB uint64, sm, ccMajor int) int {
	return clampScore(int(memGB(memMB)*30) + sm*2 + ccMajor*50)
}

func scoreDirectML(memMB uint64, cu int) int {
	return clampScore(int(memGB(memMB)*25) + cu*2)
}

func scoreOpenCL(memMB uint64, cu int) int {
	return clampScore(int(memGB(memMB)*20) + cu*2)
}

func scoreMetal(memMB uint64, cores int) int {
	return clampScore(int(memGB(memMB)*25) + cores*8)
}

func scoreCPU(cores int, memMB uint64) int {
	return clampScore(cores*10 + int(memGB(memMB)*2))
}
