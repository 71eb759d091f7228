package domain

// ZoneID buckets retirements into one of the protocol's fixed impact zones.
// The set is closed on the indexer side but the chain may introduce new
// categories first, so out-of-range ids are ignored by the reducer rather
// than treated as errors.
type ZoneID int

const (
	ZoneOcean ZoneID = iota
	ZoneForest
	ZoneEnergy
	ZoneTech
	ZoneCommunity
	ZoneWildlife

	zoneCount
)

var zoneNames = [...]string{
	ZoneOcean:     "Ocean",
	ZoneForest:    "Forest",
	ZoneEnergy:    "Energy",
	ZoneTech:      "Tech",
	ZoneCommunity: "Community",
	ZoneWildlife:  "Wildlife",
}

// Valid reports whether the zone id is one the indexer tracks.
func (z ZoneID) Valid() bool {
	return z >= 0 && z < zoneCount
}

// Name returns the zone's static display name.
func (z ZoneID) Name() string {
	if !z.Valid() {
		return ""
	}
	return zoneNames[z]
}
