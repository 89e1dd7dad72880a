package equity

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// ReadWinPCT reads a win-percentage CSV. The first row is a header and
// the first column of each subsequent row is the spread; rows run from
// +MaxRepresentedWinSpread down to -MaxRepresentedWinSpread.
func ReadWinPCT(reader io.Reader) (*WinPCTTable, error) {
	r := csv.NewReader(reader)
	idx := -1

	wpct := make([][]float32, MaxRepresentedWinSpread*2+1)
	for i := range wpct {
		wpct[i] = make([]float32, MaxRepresentedUnseen+1)
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		idx++
		// The first row is the header.
		if idx == 0 {
			continue
		}
		if idx > len(wpct) {
			return nil, fmt.Errorf("win percentage file has too many rows (%d)", idx)
		}
		for i := range record {
			// The very first column is the spread.
			if i == 0 {
				continue
			}
			if i > MaxRepresentedUnseen+1 {
				break
			}
			f, err := strconv.ParseFloat(record[i], 32)
			if err != nil {
				return nil, err
			}
			wpct[idx-1][i-1] = float32(f)
		}
	}
	log.Debug().Int("rows", idx).Msg("loaded-win-pcts")
	return &WinPCTTable{pcts: wpct}, nil
}

// LoadWinPCT loads a win-percentage CSV from a file path.
func LoadWinPCT(filename string) (*WinPCTTable, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadWinPCT(f)
}
