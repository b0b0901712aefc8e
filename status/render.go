package status

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/xeonx/timeago"
)

// Write renders the status report as an aligned text table.
func Write(w io.Writer, s *StudyStatus) error {
	fmt.Fprintf(w, "Study: %s\nWorkspace: %s\n\n", s.Name, s.Workspace)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tSTATUS\tUPDATED")
	for _, step := range s.Steps {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", step.Step, step.State, timeago.English.Format(step.Modified))
	}
	return tw.Flush()
}

// Dump writes the status report to path as csv or json, chosen by the
// file extension.
func Dump(s *StudyStatus, path string) error {
	switch filepath.Ext(path) {
	case ".csv":
		return dumpCSV(path, statusRecords(s))
	case ".json":
		return dumpJSON(path, s)
	default:
		return fmt.Errorf("status: dump file '%s' must end in .csv or .json", path)
	}
}

func statusRecords(s *StudyStatus) [][]string {
	records := [][]string{{"step", "status", "updated"}}
	for _, step := range s.Steps {
		records = append(records, []string{
			step.Step, string(step.State), step.Modified.Format("2006-01-02 15:04:05"),
		})
	}
	return records
}

// QueueInfo is one row of the `merlin queue-info` report.
type QueueInfo struct {
	Queue     string `json:"queue"`
	Tasks     int    `json:"tasks"`
	Consumers int    `json:"consumers"`
}

// WriteQueueInfo renders queue statistics as an aligned text table.
func WriteQueueInfo(w io.Writer, info []QueueInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QUEUE\tTASKS\tCONSUMERS")
	for _, row := range info {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", row.Queue, row.Tasks, row.Consumers)
	}
	return tw.Flush()
}

// DumpQueueInfo writes queue statistics to path as csv or json, chosen
// by the file extension.
func DumpQueueInfo(info []QueueInfo, path string) error {
	switch filepath.Ext(path) {
	case ".csv":
		records := [][]string{{"queue", "tasks", "consumers"}}
		for _, row := range info {
			records = append(records, []string{
				row.Queue, strconv.Itoa(row.Tasks), strconv.Itoa(row.Consumers),
			})
		}
		return dumpCSV(path, records)
	case ".json":
		return dumpJSON(path, info)
	default:
		return fmt.Errorf("status: dump file '%s' must end in .csv or .json", path)
	}
}

func dumpCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func dumpJSON(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
