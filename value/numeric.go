package value

import (
	"strconv"
	"strings"
)

func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }

func (f Float) String() string {
	s := strconv.FormatFloat(float64(f), 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && !strings.Contains(s, "NaN") {
		s += ".0"
	}
	return s
}

// FileSize is a human-displayed byte count, e.g. the result of `fs.size`.
// Unit is one of "B", "KB", "MB", "GB", "TB", chosen by the builtin that
// produced the value; the RawBytes field always holds the raw byte count so
// arithmetic on FileSize values stays exact.
type FileSize struct {
	RawBytes int64
	Unit     string
}

func (FileSize) Kind() Kind { return KindFileSize }

func (f FileSize) String() string {
	value := float64(f.RawBytes)
	switch f.Unit {
	case "KB":
		value /= 1024
	case "MB":
		value /= 1024 * 1024
	case "GB":
		value /= 1024 * 1024 * 1024
	case "TB":
		value /= 1024 * 1024 * 1024 * 1024
	default:
		return strconv.FormatInt(f.RawBytes, 10) + "B"
	}
	return strconv.FormatFloat(value, 'f', 2, 64) + f.Unit
}

// HumanFileSize picks the largest unit that keeps the displayed value
// at least 1, matching how the original implementation's
// filesize_module.rs renders sizes for humans.
func HumanFileSize(n int64) FileSize {
	units := []string{"TB", "GB", "MB", "KB"}
	thresholds := []int64{
		1024 * 1024 * 1024 * 1024,
		1024 * 1024 * 1024,
		1024 * 1024,
		1024,
	}
	for i, t := range thresholds {
		if n >= t {
			return FileSize{RawBytes: n, Unit: units[i]}
		}
	}
	return FileSize{RawBytes: n, Unit: "B"}
}
