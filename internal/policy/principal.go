package policy

import (
	"encoding/json"
	"fmt"
)

const (
	RoleRoot         = "root"
	RoleUser         = "user"
	RoleCIDRNetworks = "cidr-networks"

	iamARNPrefix = "arn:aws:iam::"
	anyPrincipal = "*"
)

// Principal is the AWS identity a statement applies to.
// A wildcard principal is encoded as {"AWS": "*"}, otherwise as {"AWS": [arn, ...]}.
type Principal struct {
	Wildcard bool
	AWS      []string
}

// ResolvePrincipal maps an account and a role keyword to a principal.
//
//   - cidr-networks, given either as account or as role: the wildcard principal
//   - root: arn:aws:iam::<account>:root
//   - any other role: arn:aws:iam::<account>:<role>/<role>
func ResolvePrincipal(account, role string) Principal {
	if account == RoleCIDRNetworks {
		return Principal{Wildcard: true}
	}
	switch role {
	case RoleCIDRNetworks:
		return Principal{Wildcard: true}
	case RoleRoot:
		return Principal{AWS: []string{iamARNPrefix + account + ":" + RoleRoot}}
	default:
		return Principal{AWS: []string{fmt.Sprintf("%s%s:%s/%s", iamARNPrefix, account, role, role)}}
	}
}

func (p Principal) MarshalJSON() ([]byte, error) {
	if p.Wildcard {
		return json.Marshal(map[string]string{"AWS": anyPrincipal})
	}
	return json.Marshal(map[string][]string{"AWS": p.AWS})
}

func (p *Principal) UnmarshalJSON(data []byte) error {
	var raw struct {
		AWS json.RawMessage `json:"AWS"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var single string
	if err := json.Unmarshal(raw.AWS, &single); err == nil {
		if single == anyPrincipal {
			*p = Principal{Wildcard: true}
		} else {
			*p = Principal{AWS: []string{single}}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw.AWS, &list); err != nil {
		return fmt.Errorf("invalid AWS principal: %w", err)
	}
	*p = Principal{AWS: list}
	return nil
}
