// Package accounts translates AWS account ids to their aliases using the account alias map file.
//
// The map file contains one account per line, the numeric id followed by the alias:
//
//	# id            alias
//	123456789012    opsqa
//	210987654321    opsprod
package accounts

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrMapNotFound    = errors.New("account map not found")
	ErrUnknownAccount = errors.New("unknown account")
	ErrNoAccountID    = errors.New("AWS_ACCOUNT_ID is not set")
)

// Map associates account ids and aliases in both directions.
type Map struct {
	byID    map[string]string
	byAlias map[string]string
}

// LoadMap reads the account alias map file.
func LoadMap(mapfile string) (*Map, error) {
	file, err := os.Open(mapfile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMapNotFound, err)
	}
	defer file.Close()

	m := &Map{
		byID:    make(map[string]string),
		byAlias: make(map[string]string),
	}
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("invalid account map %s at line %d: %q", mapfile, line, text)
		}
		m.byID[fields[0]] = fields[1]
		m.byAlias[fields[1]] = fields[0]
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Alias returns the alias of the account id.
func (m *Map) Alias(id string) (string, error) {
	alias, ok := m.byID[id]
	if !ok {
		return "", fmt.Errorf("%w: id %s", ErrUnknownAccount, id)
	}
	return alias, nil
}

// ID returns the account id of the alias.
func (m *Map) ID(alias string) (string, error) {
	id, ok := m.byAlias[alias]
	if !ok {
		return "", fmt.Errorf("%w: alias %s", ErrUnknownAccount, alias)
	}
	return id, nil
}

// AccountName returns the alias of the account referenced by the AWS_ACCOUNT_ID environment variable.
func AccountName(mapfile string) (string, error) {
	id := os.Getenv("AWS_ACCOUNT_ID")
	if id == "" {
		return "", ErrNoAccountID
	}
	return TranslateAccount(id, mapfile)
}

// AccountID returns the id of the named account. With an empty name the AWS_ACCOUNT_ID
// environment variable is returned as is.
func AccountID(name, mapfile string) (string, error) {
	if name == "" {
		id := os.Getenv("AWS_ACCOUNT_ID")
		if id == "" {
			return "", ErrNoAccountID
		}
		return id, nil
	}
	m, err := LoadMap(mapfile)
	if err != nil {
		return "", err
	}
	return m.ID(name)
}

// TranslateAccount returns the alias of the account id.
func TranslateAccount(id, mapfile string) (string, error) {
	m, err := LoadMap(mapfile)
	if err != nil {
		return "", err
	}
	return m.Alias(id)
}
