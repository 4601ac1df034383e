package agent

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

type Group struct {
	Address               string `gorm:"primary_key" json:"address"`
	Creator               string `json:"creator"`
	Treasury              string `json:"treasury"`
	PrimarySeed           uint16 `json:"primary_seed"`
	MinThreshold          uint8  `json:"min_threshold"`
	MaxExpiry             uint64 `json:"max_expiry"`
	AdminSpendingLimit    uint64 `json:"admin_spending_limit"`
	StaleTransactionIndex uint64 `json:"stale_transaction_index"`
	NumMembers            uint8  `json:"num_members"`
	AdminCounter          uint8  `json:"admin_counter"`
	Height                uint64 `json:"height"`
	UpdateHeight          uint64 `json:"update_height"`
}

type Member struct {
	Id           uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	GroupAddress string `gorm:"index" json:"group"`
	Address      string `gorm:"index" json:"address"`
	Role         uint8  `json:"role"`
	Height       uint64 `json:"height"`
}

type Proposal struct {
	Address      string `gorm:"primary_key" json:"address"`
	GroupAddress string `gorm:"index" json:"group"`
	Creator      string `json:"creator"`
	ProposalId   uint64 `json:"proposal_id"`
	Expiry       uint64 `json:"expiry"`
	CreatedTime  uint64 `json:"created_time"`
	YesVotes     uint16 `json:"yes_votes"`
	NoVotes      uint16 `json:"no_votes"`
	Height       uint64 `json:"height"`
}

type Vote struct {
	Id       uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Proposal string `gorm:"index" json:"proposal"`
	Voter    string `json:"voter"`
	Choice   uint8  `json:"choice"`
	Height   uint64 `json:"height"`
}

type Transaction struct {
	Address          string `gorm:"primary_key" json:"address"`
	Payer            string `gorm:"index" json:"payer"`
	TransactionIndex uint64 `json:"transaction_index"`
	BufferSize       uint16 `json:"buffer_size"`
	Height           uint64 `json:"height"`
}
