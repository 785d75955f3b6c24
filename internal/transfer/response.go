package transfer

import (
	"time"

	domain "domainreg/internal/domain/models"
	poll "domainreg/internal/poll/models"
	id "domainreg/pkg/domain"
)

// Response describes a transfer for a command reply or poll message.
// extended is the registration expiration the transfer produces, if any.
func Response(name id.DomainName, td domain.TransferData, extended *time.Time) poll.TransferResponse {
	return poll.TransferResponse{
		DomainName:                         name,
		GainingClientID:                    td.GainingClientID,
		LosingClientID:                     td.LosingClientID,
		TransferStatus:                     string(td.Status),
		TransferRequestTime:                td.TransferRequestTime,
		PendingTransferExpirationTime:      td.PendingTransferExpirationTime,
		ExtendedRegistrationExpirationTime: extended,
	}
}

// StatusMessage is the poll text announcing a transfer status.
func StatusMessage(s domain.TransferStatus) string {
	switch s {
	case domain.TransferPending:
		return poll.MsgTransferRequested
	case domain.TransferClientApproved, domain.TransferServerApproved:
		return poll.MsgTransferApproved
	case domain.TransferClientRejected:
		return poll.MsgTransferRejected
	default:
		return poll.MsgTransferCancelled
	}
}

// gainingPoll notifies the gaining registrar of an outcome at the transfer's
// resolution instant. It carries the pending-action result as well.
func gainingPoll(d domain.Domain, td domain.TransferData, extended *time.Time, history id.HistoryEntryID) poll.Message {
	at := td.PendingTransferExpirationTime
	return poll.NewOneTime(td.GainingClientID, at, StatusMessage(td.Status), d.RepoID, d.Name, history).
		WithTransfer(Response(d.Name, td, extended)).
		WithPendingAction(poll.PendingActionNotification{
			Name:          d.Name,
			Result:        td.Status.IsApproved(),
			ProcessedDate: at,
		})
}

// losingPoll notifies the losing registrar at the transfer's resolution instant.
func losingPoll(d domain.Domain, td domain.TransferData, extended *time.Time, history id.HistoryEntryID) poll.Message {
	return poll.NewOneTime(td.LosingClientID, td.PendingTransferExpirationTime, StatusMessage(td.Status), d.RepoID, d.Name, history).
		WithTransfer(Response(d.Name, td, extended))
}
