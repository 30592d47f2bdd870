// Package device provides read-only access to PFF files on disk with a
// bounded page cache.
package device

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-pff/internal/types"
)

// cachePageSize is the granularity of the read cache. Index node pages
// are 512 bytes; caching 4 KiB spans keeps neighboring pages warm.
const cachePageSize = 4096

// PFFFile provides cached read access to a PFF file.
type PFFFile struct {
	file             *os.File
	path             string
	size             int64
	pageCache        map[int64][]byte
	cacheMutex       sync.RWMutex
	maxCacheSize     int64
	currentCacheSize int64
	stats            *FileStatistics
}

// FileStatistics tracks file access counters.
type FileStatistics struct {
	readsIssued uint64
	bytesRead   uint64
	cacheHits   uint64
	cacheMisses uint64
	mu          sync.RWMutex
}

// FileConfig holds configuration for PFF file handling.
type FileConfig struct {
	CacheEnabled bool  `mapstructure:"cache_enabled"`
	CacheSize    int   `mapstructure:"cache_size"`
	StrictHeader bool  `mapstructure:"strict_header"`
	MaxFileSize  int64 `mapstructure:"max_file_size"`
}

// LoadFileConfig loads PFF file configuration using Viper.
func LoadFileConfig() (*FileConfig, error) {
	viper.SetConfigName("pff-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("$HOME/.pff")
	viper.AddConfigPath("/etc/pff")

	viper.SetDefault("cache_enabled", true)
	viper.SetDefault("cache_size", 64) // MiB
	viper.SetDefault("strict_header", true)
	viper.SetDefault("max_file_size", int64(0))

	viper.SetEnvPrefix("PFF")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	var config FileConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// OpenPFFFile opens a PFF file for reading. The file signature is verified
// only when config.StrictHeader is set; a nil config does not set it.
func OpenPFFFile(path string, config *FileConfig) (*PFFFile, error) {
	if config == nil {
		config = &FileConfig{CacheEnabled: true, CacheSize: 64}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PFF file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat PFF file: %w", err)
	}
	if config.MaxFileSize > 0 && stat.Size() > config.MaxFileSize {
		file.Close()
		return nil, fmt.Errorf("file size %d exceeds configured maximum %d", stat.Size(), config.MaxFileSize)
	}

	device := &PFFFile{
		file:         file,
		path:         path,
		size:         stat.Size(),
		maxCacheSize: int64(config.CacheSize) * 1024 * 1024,
		stats:        &FileStatistics{},
	}
	if config.CacheEnabled {
		device.pageCache = make(map[int64][]byte)
	}

	if config.StrictHeader {
		if err := device.verifySignature(); err != nil {
			file.Close()
			return nil, err
		}
	}

	return device, nil
}

// verifySignature checks the file starts with the PFF signature.
func (d *PFFFile) verifySignature() error {
	signatureData := make([]byte, 4)
	if _, err := d.file.ReadAt(signatureData, 0); err != nil {
		return fmt.Errorf("failed to read file signature: %w", err)
	}
	signature := binary.LittleEndian.Uint32(signatureData)
	if signature != types.FileHeaderSignature {
		return fmt.Errorf("not a PFF file: signature %#x", signature)
	}
	return nil
}

// ReadAt reads len(buf) bytes starting at the given file offset.
func (d *PFFFile) ReadAt(buf []byte, offset int64) (int, error) {
	if offset < 0 || offset+int64(len(buf)) > d.size {
		return 0, fmt.Errorf("read of %d bytes at offset %d outside file of %d bytes", len(buf), offset, d.size)
	}
	if d.pageCache == nil {
		d.recordRead(len(buf), false)
		return d.file.ReadAt(buf, offset)
	}

	read := 0
	for read < len(buf) {
		pageOffset := (offset + int64(read)) &^ (cachePageSize - 1)
		page, hit, err := d.cachedPage(pageOffset)
		if err != nil {
			return read, err
		}
		d.recordRead(0, hit)
		start := (offset + int64(read)) - pageOffset
		read += copy(buf[read:], page[start:])
	}
	d.recordRead(read, true)
	return read, nil
}

// cachedPage returns the cache page starting at pageOffset, reading it
// from disk on a miss.
func (d *PFFFile) cachedPage(pageOffset int64) ([]byte, bool, error) {
	d.cacheMutex.RLock()
	page, ok := d.pageCache[pageOffset]
	d.cacheMutex.RUnlock()
	if ok {
		return page, true, nil
	}

	length := int64(cachePageSize)
	if pageOffset+length > d.size {
		length = d.size - pageOffset
	}
	page = make([]byte, length)
	if _, err := d.file.ReadAt(page, pageOffset); err != nil {
		return nil, false, fmt.Errorf("failed to read page at offset %d: %w", pageOffset, err)
	}

	d.cacheMutex.Lock()
	if d.currentCacheSize+length > d.maxCacheSize {
		// Drop the whole cache rather than track recency; reads
		// during a build are clustered, so this is rare.
		d.pageCache = make(map[int64][]byte)
		d.currentCacheSize = 0
	}
	d.pageCache[pageOffset] = page
	d.currentCacheSize += length
	d.cacheMutex.Unlock()

	return page, false, nil
}

// ReadRange reads length bytes starting at the given file offset.
func (d *PFFFile) ReadRange(offset int64, length uint32) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := d.ReadAt(buf, offset); err != nil {
		return nil, err
	}
	return buf, nil
}

// Size returns the total size of the file in bytes.
func (d *PFFFile) Size() int64 {
	return d.size
}

// IsValidOffset checks if a file offset is inside the file.
func (d *PFFFile) IsValidOffset(offset int64) bool {
	return offset >= 0 && offset < d.size
}

// CanReadRange checks if a range of bytes can be read.
func (d *PFFFile) CanReadRange(offset int64, length uint32) bool {
	return offset >= 0 && offset+int64(length) <= d.size
}

// Path returns the system path the file was opened from.
func (d *PFFFile) Path() string {
	return d.path
}

// Close closes the underlying file and drops the cache.
func (d *PFFFile) Close() error {
	d.cacheMutex.Lock()
	d.pageCache = nil
	d.currentCacheSize = 0
	d.cacheMutex.Unlock()
	return d.file.Close()
}

// recordRead updates the access statistics.
func (d *PFFFile) recordRead(bytes int, hit bool) {
	d.stats.mu.Lock()
	defer d.stats.mu.Unlock()
	if bytes > 0 {
		d.stats.readsIssued++
		d.stats.bytesRead += uint64(bytes)
		return
	}
	if hit {
		d.stats.cacheHits++
	} else {
		d.stats.cacheMisses++
	}
}

// Statistics returns a snapshot of the access counters.
func (d *PFFFile) Statistics() (readsIssued, bytesRead, cacheHits, cacheMisses uint64) {
	d.stats.mu.RLock()
	defer d.stats.mu.RUnlock()
	return d.stats.readsIssued, d.stats.bytesRead, d.stats.cacheHits, d.stats.cacheMisses
}
