package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/calehh/msig-app/tx"
	msig_types "github.com/calehh/msig-app/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// BlockSource is the part of the cometbft RPC client the indexer reads from.
type BlockSource interface {
	Status(ctx context.Context) (*coretypes.ResultStatus, error)
	BlockResults(ctx context.Context, height *int64) (*coretypes.ResultBlockResults, error)
}

type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	db            *gorm.DB
	src           BlockSource
	eventHandlers map[string]eventHandler
}

func OpenDB(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Height{}, &Group{}, &Member{}, &Proposal{}, &Vote{}, &Transaction{}).Error; err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, err
	}
	c, err := newChainIndexer(logger, db, cli)
	if err != nil {
		db.Close()
		return nil, err
	}
	c.Url = chainUrl
	return c, nil
}

func newChainIndexer(logger cmtlog.Logger, db *gorm.DB, src BlockSource) (*ChainIndexer, error) {
	h := Height{Id: 1}
	if err := db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c := &ChainIndexer{
		logger: logger.With("module", "indexer"),
		Height: int64(h.Height + 1),
		db:     db,
		src:    src,
	}
	c.eventHandlers = map[string]eventHandler{
		msig_types.EventInitGroupType:         c.handleEventInitGroup,
		msig_types.EventAddMemberType:         c.handleEventAddMember,
		msig_types.EventRemoveMemberType:      c.handleEventRemoveMember,
		msig_types.EventUpdateGroupType:       c.handleEventUpdateGroup,
		msig_types.EventCreateProposalType:    c.handleEventCreateProposal,
		msig_types.EventVoteType:              c.handleEventVote,
		msig_types.EventCreateTransactionType: c.handleEventCreateTransaction,
	}
	return c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

type eventHandler func(event abci.Event, height int64) error

var errDecodeEvent = errors.New("decode event fail")

func (c *ChainIndexer) handleEvent(event abci.Event, height int64) {
	h, ok := c.eventHandlers[event.Type]
	if !ok {
		return
	}
	if err := h(event, height); err != nil {
		c.logger.Error("handle event fail", "type", event.Type, "height", height, "err", err)
	}
}

// IndexBlock stores the events of the successful txs of one block and
// advances the saved height.
func (c *ChainIndexer) IndexBlock(height int64, results []*abci.ExecTxResult) error {
	for _, res := range results {
		if res == nil || res.Code != 0 {
			continue
		}
		for _, event := range res.Events {
			c.handleEvent(event, height)
		}
	}
	return c.db.Save(&Height{Id: 1, Height: uint64(height)}).Error
}

func (c *ChainIndexer) handleEventInitGroup(event abci.Event, height int64) error {
	ev := msig_types.DecodeEventInitGroup(event)
	if ev == nil {
		return errDecodeEvent
	}
	group := Group{
		Address:      ev.Group,
		Creator:      ev.Creator,
		Treasury:     ev.Treasury,
		PrimarySeed:  ev.PrimarySeed,
		MinThreshold: ev.MinThreshold,
		MaxExpiry:    ev.MaxExpiry,
		NumMembers:   uint8(len(ev.Members)),
		AdminCounter: ev.AdminCounter,
		Height:       uint64(height),
		UpdateHeight: uint64(height),
	}
	if err := c.db.Save(&group).Error; err != nil {
		return err
	}
	for i, m := range ev.Members {
		role := msig_types.RoleMember
		if i < int(ev.AdminCounter) {
			role = msig_types.RoleAdmin
		}
		member := Member{GroupAddress: ev.Group, Address: m, Role: uint8(role), Height: uint64(height)}
		if err := c.db.Create(&member).Error; err != nil {
			return err
		}
	}
	return nil
}

func (c *ChainIndexer) updateGroupCounters(ev *msig_types.EventMember, height int64) error {
	return c.db.Model(&Group{Address: ev.Group}).Updates(map[string]interface{}{
		"num_members":   ev.NumMembers,
		"admin_counter": ev.AdminCounter,
		"update_height": uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventAddMember(event abci.Event, height int64) error {
	ev := msig_types.DecodeEventMember(event)
	if ev == nil {
		return errDecodeEvent
	}
	member := Member{GroupAddress: ev.Group, Address: ev.Member, Role: uint8(ev.Role), Height: uint64(height)}
	if err := c.db.Create(&member).Error; err != nil {
		return err
	}
	return c.updateGroupCounters(ev, height)
}

func (c *ChainIndexer) handleEventRemoveMember(event abci.Event, height int64) error {
	ev := msig_types.DecodeEventMember(event)
	if ev == nil {
		return errDecodeEvent
	}
	if err := c.db.Where("group_address = ? AND address = ?", ev.Group, ev.Member).Delete(&Member{}).Error; err != nil {
		return err
	}
	return c.updateGroupCounters(ev, height)
}

func (c *ChainIndexer) handleEventUpdateGroup(event abci.Event, height int64) error {
	ev := msig_types.DecodeEventUpdateGroup(event)
	if ev == nil {
		return errDecodeEvent
	}
	var column string
	switch ev.UpdateType {
	case tx.GroupUpdateThreshold:
		column = "min_threshold"
	case tx.GroupUpdateSpendingLimit:
		column = "admin_spending_limit"
	case tx.GroupUpdateStaleIndex:
		column = "stale_transaction_index"
	default:
		return fmt.Errorf("update type %d: %w", ev.UpdateType, errDecodeEvent)
	}
	return c.db.Model(&Group{Address: ev.Group}).Updates(map[string]interface{}{
		column:          ev.Value,
		"update_height": uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventCreateProposal(event abci.Event, height int64) error {
	ev := msig_types.DecodeEventCreateProposal(event)
	if ev == nil {
		return errDecodeEvent
	}
	proposal := Proposal{
		Address:      ev.Proposal,
		GroupAddress: ev.Group,
		Creator:      ev.Creator,
		ProposalId:   ev.ProposalId,
		Expiry:       ev.Expiry,
		CreatedTime:  ev.CreatedTime,
		Height:       uint64(height),
	}
	return c.db.Save(&proposal).Error
}

func (c *ChainIndexer) handleEventVote(event abci.Event, height int64) error {
	ev := msig_types.DecodeEventVote(event)
	if ev == nil {
		return errDecodeEvent
	}
	var vote Vote
	err := c.db.Where("proposal = ? AND voter = ?", ev.Proposal, ev.Voter).First(&vote).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	vote.Proposal = ev.Proposal
	vote.Voter = ev.Voter
	vote.Choice = uint8(ev.Choice)
	vote.Height = uint64(height)
	if err = c.db.Save(&vote).Error; err != nil {
		return err
	}
	return c.db.Model(&Proposal{Address: ev.Proposal}).Updates(map[string]interface{}{
		"yes_votes": ev.YesVotes,
		"no_votes":  ev.NoVotes,
	}).Error
}

func (c *ChainIndexer) handleEventCreateTransaction(event abci.Event, height int64) error {
	ev := msig_types.DecodeEventCreateTransaction(event)
	if ev == nil {
		return errDecodeEvent
	}
	t := Transaction{
		Address:          ev.Transaction,
		Payer:            ev.Payer,
		TransactionIndex: ev.TransactionIndex,
		BufferSize:       ev.BufferSize,
		Height:           uint64(height),
	}
	return c.db.Save(&t).Error
}

// sync indexes every block up to the latest one reported by the node.
func (c *ChainIndexer) sync(ctx context.Context) error {
	status, err := c.src.Status(ctx)
	if err != nil {
		return err
	}
	for status.SyncInfo.LatestBlockHeight >= c.Height {
		if err := ctx.Err(); err != nil {
			return err
		}
		height := c.Height
		res, err := c.src.BlockResults(ctx, &height)
		if err != nil {
			return fmt.Errorf("block results %d: %w", height, err)
		}
		if err = c.IndexBlock(height, res.TxsResults); err != nil {
			return fmt.Errorf("index block %d: %w", height, err)
		}
		c.logger.Debug("indexed block", "height", height)
		c.Height++
	}
	return nil
}

func (c *ChainIndexer) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.sync(ctx); err != nil {
				c.logger.Error("indexer sync fail", "height", c.Height, "err", err)
			}
		}
	}
}

func paginate(db *gorm.DB, page int, pageSize int) *gorm.DB {
	return db.Offset(page * pageSize).Limit(pageSize)
}

func (c *ChainIndexer) getGroup(address string) (Group, error) {
	var group Group
	err := c.db.Where("address = ?", address).First(&group).Error
	if err != nil {
		return Group{}, err
	}
	return group, nil
}

func (c *ChainIndexer) getGroups(page int, pageSize int) ([]Group, uint64, error) {
	var groups []Group
	err := paginate(c.db.Order("height desc"), page, pageSize).Find(&groups).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Group{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

func (c *ChainIndexer) getGroupsByMember(member string, page int, pageSize int) ([]Group, uint64, error) {
	var memberships []Member
	err := c.db.Where("address = ?", member).Find(&memberships).Error
	if err != nil {
		return nil, 0, err
	}
	addrs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		addrs = append(addrs, m.GroupAddress)
	}
	var groups []Group
	if len(addrs) == 0 {
		return groups, 0, nil
	}
	err = paginate(c.db.Where("address IN (?)", addrs).Order("height desc"), page, pageSize).Find(&groups).Error
	if err != nil {
		return nil, 0, err
	}
	return groups, uint64(len(addrs)), nil
}

// getMembers lists admins first, each class in join order.
func (c *ChainIndexer) getMembers(group string) ([]Member, error) {
	var members []Member
	err := c.db.Where("group_address = ?", group).Order("role desc").Order("id asc").Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (c *ChainIndexer) getProposal(address string) (Proposal, error) {
	var proposal Proposal
	err := c.db.Where("address = ?", address).First(&proposal).Error
	if err != nil {
		return Proposal{}, err
	}
	return proposal, nil
}

func (c *ChainIndexer) getProposalsByGroup(group string, page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	err := paginate(c.db.Where("group_address = ?", group).Order("height desc"), page, pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Where("group_address = ?", group).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getVotesByProposal(proposal string) ([]Vote, error) {
	var votes []Vote
	err := c.db.Where("proposal = ?", proposal).Order("id asc").Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (c *ChainIndexer) getTransaction(address string) (Transaction, error) {
	var t Transaction
	err := c.db.Where("address = ?", address).First(&t).Error
	if err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (c *ChainIndexer) getTransactionsByPayer(payer string, page int, pageSize int) ([]Transaction, uint64, error) {
	var txs []Transaction
	err := paginate(c.db.Where("payer = ?", payer).Order("transaction_index desc"), page, pageSize).Find(&txs).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Transaction{}).Where("payer = ?", payer).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}
