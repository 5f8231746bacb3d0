package transfer

import (
	"io"
	"time"

	"ftpbrowser/perfmetrics"
	"ftpbrowser/session"
)

// ProgressFunc receives periodic updates while a file is retrieved
type ProgressFunc func(name string, transferred int64, speed float64, elapsed time.Duration)

// ProgressWriter wraps an io.Writer to track how many bytes pass through it
// and how fast.
type ProgressWriter struct {
	Writer      io.Writer
	Name        string
	Transferred int64
	StartTime   time.Time
	LastUpdate  time.Time
	LastBytes   int64
	Interval    time.Duration
	OnProgress  ProgressFunc
}

func (pw *ProgressWriter) Write(p []byte) (n int, err error) {
	if pw.StartTime.IsZero() {
		pw.StartTime = time.Now()
		pw.LastUpdate = pw.StartTime
		if pw.Interval == 0 {
			pw.Interval = 100 * time.Millisecond
		}
	}

	n, err = pw.Writer.Write(p)
	if n > 0 {
		pw.Transferred += int64(n)

		now := time.Now()
		if pw.OnProgress != nil && now.Sub(pw.LastUpdate) >= pw.Interval {
			bytesDiff := pw.Transferred - pw.LastBytes
			timeDiff := now.Sub(pw.LastUpdate).Seconds()
			pw.OnProgress(pw.Name, pw.Transferred, float64(bytesDiff)/timeDiff, now.Sub(pw.StartTime))

			pw.LastUpdate = now
			pw.LastBytes = pw.Transferred
		}
	}
	return
}

// AverageSpeed returns bytes per second since the first write
func (pw *ProgressWriter) AverageSpeed() float64 {
	if pw.StartTime.IsZero() {
		return 0
	}
	elapsed := time.Since(pw.StartTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(pw.Transferred) / elapsed
}

// meteredSession times every retrieval and reports progress
type meteredSession struct {
	session.Session
	onProgress ProgressFunc
}

func (m *meteredSession) Retrieve(name string, dst io.Writer) (int64, error) {
	pw := &ProgressWriter{Writer: dst, Name: name, OnProgress: m.onProgress}

	start := time.Now()
	n, err := m.Session.Retrieve(name, pw)
	perfmetrics.RecordRetrieve(time.Since(start), err == nil)

	if err == nil && m.onProgress != nil {
		m.onProgress(name, n, pw.AverageSpeed(), time.Since(start))
	}
	return n, err
}
