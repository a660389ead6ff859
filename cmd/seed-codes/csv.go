package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/stemsi/websurvey-backend/internal/model"
)

// parseCodes reads nama_responden,kode_unik rows. A first row whose second
// column is "kode_unik" is treated as a header. Blank lines are skipped.
func parseCodes(r io.Reader) ([]model.CreateUniqueCodeRequest, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var reqs []model.CreateUniqueCodeRequest
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if line == 1 && len(record) >= 2 && strings.EqualFold(strings.TrimSpace(record[1]), "kode_unik") {
			continue
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: want nama_responden,kode_unik", line)
		}

		name := strings.TrimSpace(record[0])
		code := strings.TrimSpace(record[1])
		if name == "" || code == "" {
			return nil, fmt.Errorf("line %d: empty nama_responden or kode_unik", line)
		}
		reqs = append(reqs, model.CreateUniqueCodeRequest{NamaResponden: name, KodeUnik: code})
	}
	return reqs, nil
}

func chunk(reqs []model.CreateUniqueCodeRequest, size int) [][]model.CreateUniqueCodeRequest {
	if size <= 0 {
		size = len(reqs)
	}
	var out [][]model.CreateUniqueCodeRequest
	for size < len(reqs) {
		reqs, out = reqs[size:], append(out, reqs[:size])
	}
	if len(reqs) > 0 {
		out = append(out, reqs)
	}
	return out
}
