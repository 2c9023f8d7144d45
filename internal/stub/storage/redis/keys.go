package redis

import (
	"fmt"

	"github.com/bsi-games/bsi/internal/model"
)

const keyPrefix = "bsi"

func registeredPlayerKey(username string) string {
	return fmt.Sprintf("%s:registered_player:%s", keyPrefix, username)
}

// eaddressIndexKey maps an address to the username registered with it
func eaddressIndexKey(eaddress string) string {
	return fmt.Sprintf("%s:idx:eaddress:%s", keyPrefix, eaddress)
}

func tokenKey(secret string) string {
	return fmt.Sprintf("%s:token:%s", keyPrefix, secret)
}

func rosterKey(username string) string {
	return fmt.Sprintf("%s:roster:%s", keyPrefix, username)
}

// rosterIndexKey is the SET of roster entry keys
func rosterIndexKey() string {
	return fmt.Sprintf("%s:idx:roster", keyPrefix)
}

func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// gamesForPlayerIndexKey is the SET of game keys a player takes part in
func gamesForPlayerIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:games_for_player:%s", keyPrefix, username)
}
