package vault

import "github.com/xraph/vault/id"

// ID is the identifier type for Vault identities and events.
type ID = id.ID

// AccountID identifies a subscriber, merchant, or administrator.
type AccountID = id.AccountID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
