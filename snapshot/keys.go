package snapshot

import (
	"fmt"
	"strings"
)

const keyPrefix = "SPARSE:SNAPSHOT:"

// manifestKey maps a snapshot name to its current manifest.
func manifestKey(name string) string {
	return fmt.Sprintf("%s%s:MANIFEST", keyPrefix, name)
}

func manifestPattern() string {
	return keyPrefix + "*:MANIFEST"
}

func nameFromManifestKey(key string) string {
	return strings.TrimSuffix(strings.TrimPrefix(key, keyPrefix), ":MANIFEST")
}

// entitiesKey holds the live identifiers of one saved version of a snapshot.
func entitiesKey(name, version string) string {
	return fmt.Sprintf("%s%s:VERSION-%s:ENTITIES", keyPrefix, name, version)
}

// storeIDsKey holds the dense identifiers of one store.
func storeIDsKey(name, version, store string) string {
	return fmt.Sprintf("%s%s:VERSION-%s:STORE-%s:IDS", keyPrefix, name, version, store)
}

// storeDataKey holds the components of one store, positionally matching storeIDsKey.
func storeDataKey(name, version, store string) string {
	return fmt.Sprintf("%s%s:VERSION-%s:STORE-%s:DATA", keyPrefix, name, version, store)
}

func versionPattern(name, version string) string {
	return fmt.Sprintf("%s%s:VERSION-%s:*", keyPrefix, name, version)
}
