package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	reporterAuth "github.com/MrEthical07/reporterAuth"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed body: %v", reporterAuth.ErrValidation, err)
	}
	return nil
}
