package listview

import (
	"bufio"
	"io"
	"strings"
)

const (
	csvHeader       = "username"
	csvQuote        = `"`
	csvEscapedQuote = `""`
	csvLineBreak    = "\n"
	// CSVContentType is the media type of WriteCSV output.
	CSVContentType = "text/csv; charset=utf-8"
)

// WriteCSV writes identifiers as a single always-quoted username column.
func WriteCSV(writer io.Writer, identifiers []string) error {
	bufferedWriter := bufio.NewWriter(writer)
	if _, err := bufferedWriter.WriteString(csvHeader + csvLineBreak); err != nil {
		return err
	}
	for _, identifier := range identifiers {
		quoted := csvQuote + strings.ReplaceAll(identifier, csvQuote, csvEscapedQuote) + csvQuote + csvLineBreak
		if _, err := bufferedWriter.WriteString(quoted); err != nil {
			return err
		}
	}
	return bufferedWriter.Flush()
}
