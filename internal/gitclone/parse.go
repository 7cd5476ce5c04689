package gitclone

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/eim-labs/eim/internal/progress"
)

var (
	receivingRe = regexp.MustCompile(`Receiving objects:\s+(\d+)%`)
	cloningRe   = regexp.MustCompile(`Cloning into '([^']+)'`)
	checkoutRe  = regexp.MustCompile(`Submodule path '([^']+)': checked out`)
)

// parseProgress reads git's stderr stream and converts transfer lines into
// events. Git rewrites progress lines in place with carriage returns, so
// the scanner splits on both CR and LF. The first "Cloning into" line is
// the main repository; later ones mark the start of a submodule clone and
// scope subsequent percentages to that submodule.
func parseProgress(r io.Reader, events chan<- progress.Event) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024)
	sc.Split(scanCRLF)

	mainSeen := false
	submodule := ""
	for sc.Scan() {
		line := sc.Text()

		if m := cloningRe.FindStringSubmatch(line); m != nil {
			if !mainSeen {
				mainSeen = true
			} else {
				submodule = submoduleName(m[1])
			}
			continue
		}
		if m := checkoutRe.FindStringSubmatch(line); m != nil {
			events <- progress.SubmoduleFinish(m[1])
			submodule = ""
			continue
		}
		if m := receivingRe.FindStringSubmatch(line); m != nil {
			pct, _ := strconv.Atoi(m[1])
			if submodule != "" {
				events <- progress.SubmoduleUpdate(submodule, pct)
			} else {
				events <- progress.Update(pct)
			}
		}
	}
}

// submoduleName trims the clone destination down to a repo-relative label.
func submoduleName(dest string) string {
	dest = strings.ReplaceAll(dest, `\`, "/")
	if i := strings.LastIndex(dest, "/esp-idf/"); i >= 0 {
		return dest[i+len("/esp-idf/"):]
	}
	if i := strings.LastIndex(dest, "/"); i >= 0 {
		return dest[i+1:]
	}
	return dest
}

// scanCRLF is bufio.ScanLines extended to treat a bare carriage return as
// a line terminator too.
func scanCRLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
