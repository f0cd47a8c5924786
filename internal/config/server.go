// Package config loads server configuration from flags and environment.
package config

import (
	"flag"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/mkurnosov/webpulse/internal/misc"
)

const (
	defaultListenAddr    = ":8080"
	defaultFilePath      = "snapshot-db.json"
	defaultDSN           = ""
	defaultStoreInterval = 300
	defaultRestore       = false
	defaultCheckSeconds  = 1
	defaultSampleSeconds = 1
)

// defaultWorkerProcs are the process names classified as web server workers
// when WORKER_PROCS is not set.
var defaultWorkerProcs = []string{"nginx", "apache2", "httpd", "caddy"}

type ServerConfig struct {
	Address        string
	File           string
	DSN            string
	Key            string
	StoreInterval  time.Duration
	Restore        bool
	CheckInterval  time.Duration
	SampleInterval time.Duration
	WorkerProcs    []string
}

// LoadServerConfig resolves configuration as CLI > ENV > defaults for the
// listen address, ENV > CLI elsewhere, mirroring how each knob is usually
// set in deployment.
func LoadServerConfig(args []string, out io.Writer) (ServerConfig, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("webpulse", flag.ContinueOnError)
	fs.SetOutput(out)

	var addrOpt string
	var fileOpt string
	var dsnOpt string
	var keyOpt string
	var storeOpt int
	var restoreOpt bool
	var checkOpt int
	var sampleOpt int
	var workersOpt string

	fs.StringVar(&addrOpt, "a", "", fmt.Sprintf("HTTP listen address, default: %s", defaultListenAddr))
	fs.StringVar(&fileOpt, "f", "", fmt.Sprintf("FILE_STORAGE_PATH for the last snapshot, default: %s", defaultFilePath))
	fs.StringVar(&dsnOpt, "d", "", "DATABASE_DSN for Postgres snapshot history")
	fs.StringVar(&keyOpt, "k", "", "secret key for HashSHA256 response signing")
	fs.IntVar(&storeOpt, "i", -1, fmt.Sprintf("STORE_INTERVAL seconds (0 - disable), default: %d", defaultStoreInterval))
	fs.BoolVar(&restoreOpt, "r", false, fmt.Sprintf("RESTORE last snapshot on start, default: %t", defaultRestore))
	fs.IntVar(&checkOpt, "c", 0, fmt.Sprintf("CHECK_INTERVAL seconds between topology drift checks, default: %d", defaultCheckSeconds))
	fs.IntVar(&sampleOpt, "s", 0, fmt.Sprintf("SAMPLE_INTERVAL seconds between background samples, default: %d", defaultSampleSeconds))
	fs.StringVar(&workersOpt, "w", "", fmt.Sprintf("WORKER_PROCS comma-separated worker process names, default: %s", strings.Join(defaultWorkerProcs, ",")))

	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, err
	}

	addr := addrOpt
	if strings.TrimSpace(addr) == "" {
		addr = misc.Getenv("ADDRESS", defaultListenAddr)
	}
	addr = normalizeListenAddr(addr)

	_, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return ServerConfig{}, fmt.Errorf("invalid listen address: %q", addr)
	}

	file := fileOpt
	if strings.TrimSpace(file) == "" {
		file = misc.Getenv("FILE_STORAGE_PATH", defaultFilePath)
	}

	dsn := misc.Getenv("DATABASE_DSN", defaultDSN)
	if dsn == "" {
		dsn = strings.TrimSpace(dsnOpt)
	}

	key := strings.TrimSpace(misc.Getenv("KEY", ""))
	if key == "" {
		key = strings.TrimSpace(keyOpt)
	}

	var store time.Duration
	if storeOpt >= 0 {
		store = time.Duration(storeOpt) * time.Second
	} else {
		store = misc.GetDuration("STORE_INTERVAL", time.Duration(defaultStoreInterval)*time.Second)
	}

	restore := restoreOpt
	if !restore {
		restore = misc.GetBool("RESTORE", defaultRestore)
	}

	check := misc.GetDuration("CHECK_INTERVAL", 0)
	if check == 0 {
		if checkOpt > 0 {
			check = time.Duration(checkOpt) * time.Second
		} else {
			check = defaultCheckSeconds * time.Second
		}
	}

	sample := misc.GetDuration("SAMPLE_INTERVAL", 0)
	if sample == 0 {
		if sampleOpt > 0 {
			sample = time.Duration(sampleOpt) * time.Second
		} else {
			sample = defaultSampleSeconds * time.Second
		}
	}

	workers := misc.GetStrings("WORKER_PROCS", nil)
	if workers == nil {
		if s := strings.TrimSpace(workersOpt); s != "" {
			for _, p := range strings.Split(s, ",") {
				if p = strings.TrimSpace(p); p != "" {
					workers = append(workers, p)
				}
			}
		}
	}
	if len(workers) == 0 {
		workers = defaultWorkerProcs
	}

	return ServerConfig{
		Address:        addr,
		File:           file,
		DSN:            dsn,
		Key:            key,
		StoreInterval:  store,
		Restore:        restore,
		CheckInterval:  check,
		SampleInterval: sample,
		WorkerProcs:    workers,
	}, nil
}

func normalizeListenAddr(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultListenAddr
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			return u.Host
		}
	}
	if !strings.Contains(s, ":") {
		return ":" + s
	}
	return s
}
