package core

const metricsAvgCount = 30

// FrameMetrics keeps a moving average of frame times and a frames-per-second
// counter. It is owned by the frame loop and is not safe for concurrent use.
type FrameMetrics struct {
	frameAvgCounter    int
	msTimes            [metricsAvgCount]float64
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
}

func NewFrameMetrics() *FrameMetrics {
	return &FrameMetrics{}
}

// Update records one frame's elapsed time in seconds.
func (m *FrameMetrics) Update(frameElapsedTime float64) {
	frameMS := frameElapsedTime * 1000.0
	m.msTimes[m.frameAvgCounter] = frameMS
	if m.frameAvgCounter == metricsAvgCount-1 {
		sum := 0.0
		for i := 0; i < metricsAvgCount; i++ {
			sum += m.msTimes[i]
		}
		m.msAvg = sum / float64(metricsAvgCount)
	}
	m.frameAvgCounter++
	m.frameAvgCounter %= metricsAvgCount

	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}

	m.frames++
}

func (m *FrameMetrics) FPS() float64 {
	return m.fps
}

func (m *FrameMetrics) FrameTime() float64 {
	return m.msAvg
}
