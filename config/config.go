package config

import (
	"errors"
	"flag"
	"net"
	"regexp"
	"strconv"
)

type Config struct {
	Addr             string
	DBUrl            string
	MediaUploadUrl   string
	UploadPreset     string
	RecordStoreUrl   string
	RecordCollection string
	Debug            bool
}

func ParseFlags() (cfg Config, err error) {
	var host string
	flag.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", 80, "listen port number (default 80)")
	flag.StringVar(&cfg.DBUrl, "db-url", "incidents.sqlite", "path to SQLite3 DB file for submission state (default incidents.sqlite)")
	flag.StringVar(&cfg.MediaUploadUrl, "media-url", "", "media host upload endpoint")
	flag.StringVar(&cfg.UploadPreset, "upload-preset", "", "unsigned upload preset sent with every media upload")
	flag.StringVar(&cfg.RecordStoreUrl, "record-url", "", "document store base URL")
	flag.StringVar(&cfg.RecordCollection, "record-collection", "incidents", "document store collection name (default incidents)")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))

	switch {
	case cfg.MediaUploadUrl == "":
		err = errors.New("missing parameter -media-url")
	case cfg.UploadPreset == "":
		err = errors.New("missing parameter -upload-preset")
	case cfg.RecordStoreUrl == "":
		err = errors.New("missing parameter -record-url")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
