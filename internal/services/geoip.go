package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"jcoder/internal/config"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
)

type geoIPReader interface {
	City(ip net.IP) (*geoip2.City, error)
	Metadata() maxminddb.Metadata
	Close() error
}

// GeoIPService resolves visitor addresses to country and city with a
// MaxMind database that is downloaded through geoipupdate.
type GeoIPService struct {
	cfg    config.Config
	logger *slog.Logger

	mu     sync.RWMutex
	reader geoIPReader

	// command builds the geoipupdate invocation; tests swap it out.
	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewGeoIPService(cfg config.Config, logger *slog.Logger) *GeoIPService {
	return &GeoIPService{
		cfg:     cfg,
		logger:  logger,
		command: exec.CommandContext,
	}
}

// Init opens the location database, downloading it first when the file
// is missing. Lookups stay disabled if either step fails.
func (s *GeoIPService) Init(ctx context.Context) {
	if !s.cfg.GeoIPEnabled() {
		s.logger.Warn("GeoIP: MaxMind credentials not set, visit locations will not be resolved")
		return
	}

	dbPath := s.cfg.MaxMindDBPath
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		s.logger.Error("GeoIP: cannot create database directory", "path", dbPath, "error", err)
		return
	}

	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("GeoIP: database not found, running geoipupdate", "path", dbPath)
		if err := s.download(ctx); err != nil {
			s.logger.Error("GeoIP: initial download failed", "error", err)
		}
	}

	s.openReader(dbPath)
}

// Refresh downloads a fresh database and swaps the reader. The download
// is killed when ctx ends.
func (s *GeoIPService) Refresh(ctx context.Context) error {
	if !s.cfg.GeoIPEnabled() {
		return nil
	}
	if err := s.download(ctx); err != nil {
		return err
	}
	s.openReader(s.cfg.MaxMindDBPath)
	return nil
}

// download writes a throwaway GeoIP.conf next to the database and runs
// geoipupdate against it.
func (s *GeoIPService) download(ctx context.Context) error {
	dir := filepath.Dir(s.cfg.MaxMindDBPath)
	confPath := filepath.Join(dir, "GeoIP.conf")

	conf := fmt.Sprintf("AccountID %s\nLicenseKey %s\nEditionIDs %s\nDatabaseDirectory %s\n",
		s.cfg.MaxMindAccountID, s.cfg.MaxMindLicenseKey, s.cfg.MaxMindEditionIDs, dir)
	if err := os.WriteFile(confPath, []byte(conf), 0600); err != nil {
		return fmt.Errorf("failed to write GeoIP.conf: %w", err)
	}
	defer os.Remove(confPath)

	out, err := s.command(ctx, "geoipupdate", "-v", "-f", confPath, "-d", dir).CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("geoipupdate interrupted: %w", ctxErr)
		}
		return fmt.Errorf("geoipupdate failed: %w, output: %s", err, string(out))
	}

	s.logger.Info("GeoIP: database downloaded", "dir", dir)
	return nil
}

// openReader replaces the current reader with one over path. On failure
// the old reader is still closed and lookups return nothing.
func (s *GeoIPService) openReader(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reader != nil {
		s.reader.Close()
		s.reader = nil
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		s.logger.Error("GeoIP: cannot open database", "path", path, "error", err)
		return
	}
	s.reader = reader

	meta := reader.Metadata()
	s.logger.Info("GeoIP: database loaded", "type", meta.DatabaseType, "built", meta.BuildEpoch)
}

// Lookup returns the English country and city names for ipStr. ok is
// false when nothing useful is known, so callers store no location.
func (s *GeoIPService) Lookup(ipStr string) (country, city string, ok bool) {
	if ipStr == "127.0.0.1" || ipStr == "::1" {
		return "Localhost", "Local", true
	}

	s.mu.RLock()
	reader := s.reader
	s.mu.RUnlock()

	if reader == nil {
		return "", "", false
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "", "", false
	}

	record, err := reader.City(ip)
	if err != nil {
		s.logger.Error("GeoIP: Lookup error", "ip", ipStr, "error", err)
		return "", "", false
	}

	if name, ok := record.Country.Names["en"]; ok {
		country = name
	} else {
		country = record.Country.IsoCode
	}
	if name, ok := record.City.Names["en"]; ok {
		city = name
	}

	if country == "" {
		return "", "", false
	}
	return country, city, true
}
