package storage

import "strconv"

type Namespace uint8

const (
	NamespaceGame Namespace = iota + 1
	NamespaceGameCounter
	NamespaceBalance
	NamespaceGameBet
)

// Key addresses one stored record. Build keys with GameKey, GameCounterKey,
// BalanceKey and GameBetKey; the zero Key addresses nothing.
type Key struct {
	namespace Namespace
	gameID    uint32
	identity  string
}

func GameKey(id uint32) Key {
	return Key{namespace: NamespaceGame, gameID: id}
}

func GameCounterKey() Key {
	return Key{namespace: NamespaceGameCounter}
}

func BalanceKey(identity string) Key {
	return Key{namespace: NamespaceBalance, identity: identity}
}

func GameBetKey(id uint32) Key {
	return Key{namespace: NamespaceGameBet, gameID: id}
}

func (that Key) Namespace() Namespace {
	return that.namespace
}

// String renders the key as stored by the backends.
func (that Key) String() string {
	switch that.namespace {
	case NamespaceGame:
		return "game:" + strconv.FormatUint(uint64(that.gameID), 10)
	case NamespaceGameCounter:
		return "game_counter"
	case NamespaceBalance:
		return "balance:" + that.identity
	case NamespaceGameBet:
		return "game_bet:" + strconv.FormatUint(uint64(that.gameID), 10)
	default:
		return ""
	}
}
