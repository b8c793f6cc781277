package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/thehowl/cford32"
	"go.uber.org/multierr"

	"github.com/grenlabs/diffkit/pkg/db"
)

const (
	maxBodySize        = 1 << 20 // 1M
	maxMultipartMemory = maxBodySize

	maxBytesWeek = (1 << 20) * 2 // 2M (compressed), per remote address per week.
	maxCallsWeek = 100
)

// upload accepts the two uploaded files (multipart file fields, or
// plain form values as a fallback for script-friendly clients),
// archives them, and stores the archive content-addressed by its hash.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		w.WriteHeader(400)
		w.Write([]byte("error: " + err.Error() + "\n"))
		w.Write(s.usageString())
		return nil
	}
	defer r.MultipartForm.RemoveAll()

	oldName, newName, arc, err := archiveFromForm(r.MultipartForm)
	if err != nil {
		return err
	}

	shaHash := sha256.Sum256(arc)
	id := cford32.EncodeToStringLower(shaHash[:5])
	link := s.PublicURL + "/" + id
	output := func() {
		w.Header().Set(ctHeader, ctPlain)
		w.Header().Set("Location", link)
		w.WriteHeader(http.StatusFound)
		w.Write([]byte(link + "\n"))
	}

	has, err := s.DB.HasFile(id)
	if err != nil {
		return err
	}
	if has {
		output()
		return nil
	}

	now := time.Now().UTC()
	weekNum := (now.YearDay() - 1) / 7
	err = s.DB.AddAmountsAndCompare(
		r.RemoteAddr,
		db.UsageStat{
			Period:   fmt.Sprintf("%d/%d", now.Year(), weekNum),
			NumBytes: uint64(len(arc)),
			NumCalls: 1,
		},
		db.UploadLimits{MaxBytes: maxBytesWeek, MaxCalls: maxCallsWeek},
	)
	if err != nil {
		if errors.Is(err, db.ErrLimitsExceeded) {
			resetTime := time.Date(now.Year(), time.January, ((weekNum+1)*7)+1, 0, 0, 0, 0, time.UTC)
			w.Header().Set(ctHeader, ctPlain)
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(fmt.Sprintf(
				"limit exceeded; will reset on %s (in %s)\n",
				resetTime.Format(time.RFC3339), resetTime.Sub(now),
			)))
			return nil
		}
		return err
	}

	if err := s.Storage.Put(r.Context(), id, arc); err != nil {
		return err
	}

	err = s.DB.PutFile(id, db.File{
		CreatedAt: time.Now(),
		Sum:       hex.EncodeToString(shaHash[:]),
		OldName:   oldName,
		NewName:   newName,
	})
	if err != nil {
		// background -> attempt to delete even if the request is canceled
		return multierr.Combine(err, s.Storage.Del(context.Background(), id))
	}

	output()
	return nil
}

func archiveFromForm(mf *multipart.Form) (oldName, newName string, arc []byte, err error) {
	if len(mf.File) > 0 {
		return archiveFromFormFiles(mf)
	}
	return archiveFromFormValues(mf)
}

func archiveFromFormFiles(mf *multipart.Form) (oldName, newName string, arc []byte, err error) {
	redS, greenS := mf.File["red"], mf.File["green"]
	if len(redS) != 1 || len(greenS) != 1 {
		return "", "", nil, errUsage
	}
	red, green := redS[0], greenS[0]

	redFile, err := red.Open()
	if err != nil {
		return "", "", nil, err
	}
	defer redFile.Close()
	greenFile, err := green.Open()
	if err != nil {
		return "", "", nil, err
	}
	defer greenFile.Close()

	redContent := make([]byte, red.Size)
	if _, err := io.ReadFull(redFile, redContent); err != nil {
		return "", "", nil, err
	}
	greenContent := make([]byte, green.Size)
	if _, err := io.ReadFull(greenFile, greenContent); err != nil {
		return "", "", nil, err
	}

	arc, err = archivePair(red.Filename, redContent, green.Filename, greenContent)
	return red.Filename, green.Filename, arc, err
}

func archiveFromFormValues(mf *multipart.Form) (oldName, newName string, arc []byte, err error) {
	withDefault := func(s []string, def string) string {
		if len(s) == 0 || s[0] == "" {
			return def
		}
		return s[0]
	}
	redVal, greenVal := mf.Value["red"], mf.Value["green"]
	if len(redVal) != 1 || len(greenVal) != 1 {
		return "", "", nil, errUsage
	}
	redName := withDefault(mf.Value["red_name"], "red")
	greenName := withDefault(mf.Value["green_name"], "green")

	arc, err = archivePair(redName, []byte(redVal[0]), greenName, []byte(greenVal[0]))
	return redName, greenName, arc, err
}
