package server

import (
	"archive/tar"
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// pairFile is one half of an uploaded (old, new) file pair.
type pairFile struct {
	Name    string
	Content string
}

var gzipWriterPool = sync.Pool{
	New: func() any { return &gzip.Writer{} },
}

// archivePair tar+gzip-encodes the two uploaded files into a single
// content-addressable blob, grounded on the teacher's
// pkg/http/upload.go archival helpers.
func archivePair(oldName string, oldContent []byte, newName string, newContent []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzipWriterPool.Get().(*gzip.Writer)
	gz.Reset(&buf)
	defer gzipWriterPool.Put(gz)

	tw := tar.NewWriter(gz)
	if err := tarWriteFile(tw, oldName, oldContent); err != nil {
		return nil, err
	}
	if err := tarWriteFile(tw, newName, newContent); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func tarWriteFile(tw *tar.Writer, name string, content []byte) error {
	err := tw.WriteHeader(&tar.Header{
		Name: name,
		Size: int64(len(content)),
		Mode: 0o600,
	})
	if err != nil {
		return err
	}
	_, err = tw.Write(content)
	return err
}

// unarchivePair reverses archivePair, expecting exactly two files.
func unarchivePair(data []byte) ([]pairFile, error) {
	gzrd, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gzrd.Close()

	var files []pairFile
	rd := tar.NewReader(gzrd)
	for {
		hdr, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(rd)
		if err != nil {
			return nil, err
		}
		files = append(files, pairFile{Name: hdr.Name, Content: string(content)})
	}
	return files, nil
}
