// Package storage defines the persisted shape of gene-root records.
package storage

import (
	"errors"
	"sort"
)

var (
	// ErrSeedFailed indicates the one-time bootstrap of the store did not complete.
	ErrSeedFailed = errors.New("seed database")
	// ErrUnseeded indicates the store is reachable but an organism table is missing.
	ErrUnseeded = errors.New("database is not seeded")
)

// DefaultOrganism is the organism code seeded at startup.
const DefaultOrganism = "hsa"

// OrthologRecord is one rooting result for a gene symbol.
type OrthologRecord struct {
	Node        string  `json:"node"`
	CogID       string  `json:"cog_id"`
	Root        float64 `json:"root"`
	CladeName   string  `json:"clade_name"`
	QueryItem   string  `json:"queryItem"`
	NcbiTaxonID float64 `json:"ncbiTaxonId"`
}

// Columns lists the organism table columns in declaration order.
var Columns = []string{"node", "cog_id", "root", "clade_name", "queryItem", "ncbiTaxonId"}

// OrganismTables maps each allowed organism code to the table holding its
// records. Codes absent from the map are rejected before any SQL is built.
type OrganismTables map[string]string

// DefaultOrganismTables returns the allow-list served by the API.
func DefaultOrganismTables() OrganismTables {
	return OrganismTables{DefaultOrganism: DefaultOrganism}
}

// Table returns the table identifier for code.
func (t OrganismTables) Table(code string) (string, bool) {
	table, ok := t[code]
	return table, ok
}

// Codes returns the allowed organism codes in sorted order.
func (t OrganismTables) Codes() []string {
	codes := make([]string, 0, len(t))
	for code := range t {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// SampleRecords returns the fixed rows written into the default organism
// table when the store is first created.
func SampleRecords() []OrthologRecord {
	return []OrthologRecord{
		{Node: "ENSP00000265371", CogID: "NOG06579", Root: 23, CladeName: "Ambulacraria", QueryItem: "NRP1", NcbiTaxonID: 9606},
		{Node: "ENSP00000265562", CogID: "KOG2220", Root: 36, CladeName: "SAR", QueryItem: "PTPN23", NcbiTaxonID: 9606},
		{Node: "ENSP00000265734", CogID: "KOG0594", Root: 37, CladeName: "Metamonada", QueryItem: "CDK6", NcbiTaxonID: 9606},
		{Node: "ENSP00000267082", CogID: "KOG1226", Root: 30, CladeName: "Choanoflagellata", QueryItem: "ITGB7", NcbiTaxonID: 9606},
		{Node: "ENSP00000268603", CogID: "KOG3594", Root: 30, CladeName: "Choanoflagellata", QueryItem: "CDH11", NcbiTaxonID: 9606},
	}
}
