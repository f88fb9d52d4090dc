package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/gesturekeeper/internal/gesture"
	"github.com/sadopc/gesturekeeper/internal/sequence"
)

var sequenceHeader = []string{"Sequence ID", "Sequence", "Step", "Type", "X", "Y", "Target X", "Target Y", "Delay (ms)"}

var gestureHeader = []string{"ID", "Name", "Created", "Points", "Duration (ms)"}

// ToCSV writes one row per sequence step. Target columns are empty for
// non-swipes; the delay column is empty when the step uses the default.
func ToCSV(seqs []sequence.Record, path string) error {
	return writeCSV(path, sequenceHeader, func(w *csv.Writer) error {
		for _, s := range seqs {
			for i, st := range s.Steps {
				tx, ty := "", ""
				if st.TargetPosition != nil {
					tx = formatCoord(st.TargetPosition.X)
					ty = formatCoord(st.TargetPosition.Y)
				}
				delay := ""
				if st.Delay != nil {
					delay = strconv.Itoa(*st.Delay)
				}
				row := []string{
					s.ID,
					s.Name,
					strconv.Itoa(i + 1),
					string(st.Type),
					formatCoord(st.Position.X),
					formatCoord(st.Position.Y),
					tx,
					ty,
					delay,
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// GesturesToCSV writes one summary row per gesture.
func GesturesToCSV(gestures []gesture.Record, path string) error {
	return writeCSV(path, gestureHeader, func(w *csv.Writer) error {
		for _, g := range gestures {
			row := []string{
				g.ID,
				g.Name,
				g.CreatedAt.Local().Format(time.RFC3339),
				strconv.Itoa(len(g.Points)),
				strconv.FormatInt(strokeMillis(g.Points), 10),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, header []string, rows func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(header); err != nil {
		return err
	}
	if err := rows(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// strokeMillis is the time from the first to the last sample.
func strokeMillis(pts []gesture.Point) int64 {
	if len(pts) < 2 {
		return 0
	}
	return pts[len(pts)-1].Timestamp - pts[0].Timestamp
}
