package enrich

import (
	"time"

	"github.com/oschwald/maxminddb-golang"
)

// MMDBInfo holds the metadata read back from a validated MMDB file.
type MMDBInfo struct {
	DatabaseType string
	BuildTime    time.Time
	NodeCount    uint
}

// ValidateMMDB opens path, reads its metadata, and closes it again without
// loading it into a live GeoIP/ASN table — used by the CLI's validate-mmdb
// subcommand.
func ValidateMMDB(path string) (MMDBInfo, error) {
	r, err := maxminddb.Open(path)
	if err != nil {
		return MMDBInfo{}, err
	}
	defer func() { _ = r.Close() }()

	return MMDBInfo{
		DatabaseType: r.Metadata.DatabaseType,
		BuildTime:    time.Unix(int64(r.Metadata.BuildEpoch), 0), //nolint:gosec
		NodeCount:    r.Metadata.NodeCount,
	}, nil
}
