// Command diffkit runs the HTTP frontend for the diff computation
// core: upload a pair of files, get back a link to their computed
// unified diff, semantic diff, or raw contents.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.etcd.io/bbolt"

	"github.com/grenlabs/diffkit/pkg/db"
	"github.com/grenlabs/diffkit/pkg/server"
	"github.com/grenlabs/diffkit/pkg/storage"
)

type opts struct {
	listenAddr         string
	publicURL          string
	dbFile             string
	s3Endpoint         string
	s3AccessKey        string
	s3AccessSecret     string
	s3Bucket           string
	cacheMaxBytes      uint64
	cacheCleanInterval time.Duration
}

func defaultEnv(s, def string) string {
	if v, ok := os.LookupEnv(s); ok {
		return v
	}
	return def
}

func stringVar(p *string, fg, defaultValue, usage string) {
	ev := strings.ReplaceAll(strings.ToUpper(fg), "-", "_")
	flag.StringVar(p, fg, defaultEnv(ev, defaultValue), usage+". env var: "+ev)
}

func durationVar(p *time.Duration, fg string, defaultValue time.Duration, usage string) {
	ev := strings.ReplaceAll(strings.ToUpper(fg), "-", "_")
	def := defaultValue
	if v, ok := os.LookupEnv(ev); ok {
		if parsed, err := time.ParseDuration(v); err == nil {
			def = parsed
		}
	}
	flag.DurationVar(p, fg, def, usage+". env var: "+ev)
}

func main() {
	var o opts
	stringVar(&o.listenAddr, "listen-addr", ":18844", "listen address for the web server")
	stringVar(&o.publicURL, "public-url", "http://localhost:18844", "public url for the server, used in the curl example and uploaded links")
	stringVar(&o.dbFile, "db-file", "data/db.bolt", "bbolt file used for the database. "+
		"also backs the file cache when s3 storage is configured")
	stringVar(&o.s3Endpoint, "s3-endpoint", "", "s3 endpoint; when empty, uploaded file pairs are stored directly in db-file")
	stringVar(&o.s3AccessKey, "s3-access-key", "", "s3 access key")
	stringVar(&o.s3AccessSecret, "s3-access-secret", "", "s3 access secret")
	stringVar(&o.s3Bucket, "s3-bucket", "diffkit", "s3 bucket for uploaded file pairs")
	var cacheMaxMB uint64
	cacheMaxDefault := uint64(256)
	if v, err := strconv.ParseUint(defaultEnv("CACHE_MAX_MB", ""), 10, 64); err == nil {
		cacheMaxDefault = v
	}
	flag.Uint64Var(&cacheMaxMB, "cache-max-mb", cacheMaxDefault, "max size in MB of the local cache fronting s3 storage. env var: CACHE_MAX_MB")
	durationVar(&o.cacheCleanInterval, "cache-clean-interval", time.Second,
		"how often the local cache fronting s3 storage checks its size for eviction")
	flag.Parse()
	o.cacheMaxBytes = cacheMaxMB << 20

	bdb, err := bbolt.Open(o.dbFile, 0o600, nil)
	if err != nil {
		panic(fmt.Errorf("db open error: %w", err))
	}

	srv := &server.Server{
		PublicURL: o.publicURL,
		DB:        &db.DB{DB: bdb},
	}

	if o.s3Endpoint == "" {
		srv.Storage = storage.NewDBStorage(bdb, []byte("storage"))
	} else {
		minioClient, err := minio.New(o.s3Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(o.s3AccessKey, o.s3AccessSecret, ""),
			Secure: true,
		})
		if err != nil {
			panic(fmt.Errorf("minio init error: %w", err))
		}
		permanent := &storage.MinioStorage{Client: minioClient, BucketName: o.s3Bucket}
		cache := storage.NewDBStorage(bdb, []byte("cache"))
		cached, err := storage.NewCachedStorage(cache, permanent, o.cacheMaxBytes, o.cacheCleanInterval)
		if err != nil {
			panic(fmt.Errorf("cache init error: %w", err))
		}
		srv.Storage = cached
	}

	fmt.Println("listening on", o.listenAddr)
	panic(http.ListenAndServe(o.listenAddr, srv.Router()))
}
