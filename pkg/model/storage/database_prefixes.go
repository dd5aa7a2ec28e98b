package storage

const (
	// StorePrefixHealth holds the health flags and the database version.
	StorePrefixHealth byte = 0

	StorePrefixParameters   byte = 1
	StorePrefixPolls        byte = 2
	StorePrefixReputation   byte = 3
	StorePrefixActivity     byte = 4
	StorePrefixContribution byte = 5
	StorePrefixProposals    byte = 6
	StorePrefixHistory      byte = 7
)
