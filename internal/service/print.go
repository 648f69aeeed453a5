package service

import (
	"context"
	"log"

	"tokobesi/terminal/internal/printq"
	"tokobesi/terminal/internal/receipt"
)

func (s *Service) ReceiptHTML(ctx context.Context, saleID string) (string, error) {
	sale, err := s.GetSale(ctx, saleID)
	if err != nil {
		return "", err
	}
	return s.receipts.ReceiptHTML(sale)
}

func (s *Service) ReceiptEscpos(ctx context.Context, saleID string) (receipt.Escpos, error) {
	sale, err := s.GetSale(ctx, saleID)
	if err != nil {
		return receipt.Escpos{}, err
	}
	return s.receipts.ESCPOS(sale), nil
}

// VoucherHTML renders a voucher slip. The code is re-verified so a printed
// slip always shows the live balance.
func (s *Service) VoucherHTML(ctx context.Context, code string) (string, error) {
	voucher, err := s.VerifyVoucher(ctx, code)
	if err != nil {
		return "", err
	}
	return s.receipts.VoucherHTML(voucher)
}

func (s *Service) DailySalesHTML(ctx context.Context, storeID string, date string) (string, error) {
	report, err := s.DailySales(ctx, storeID, date)
	if err != nil {
		return "", err
	}
	return s.receipts.DailySalesHTML(report)
}

func (s *Service) DailySalesCSV(ctx context.Context, storeID string, date string) (string, string, error) {
	report, err := s.DailySales(ctx, storeID, date)
	if err != nil {
		return "", "", err
	}
	return "daily-sales-" + report.Date + ".csv", receipt.DailySalesCSV(report), nil
}

// PrintReceipt queues a reprint of an existing sale on the terminal printer.
func (s *Service) PrintReceipt(ctx context.Context, saleID string) (bool, error) {
	sale, err := s.GetSale(ctx, saleID)
	if err != nil {
		return false, err
	}
	return s.publishReceipt(ctx, sale), nil
}

// PrintVoucher queues a voucher slip as an HTML job.
func (s *Service) PrintVoucher(ctx context.Context, code string) (bool, error) {
	voucher, err := s.VerifyVoucher(ctx, code)
	if err != nil {
		return false, err
	}
	if _, noop := s.printer.(printq.NoopPublisher); noop {
		return false, nil
	}
	html, err := s.receipts.VoucherHTML(voucher)
	if err != nil {
		return false, err
	}
	session, _ := SessionFromContext(ctx)
	err = s.printer.Publish(context.WithoutCancel(ctx), printq.Job{
		Kind:       printq.KindVoucher,
		StoreID:    s.storeFor(ctx, session.StoreID),
		TerminalID: session.TerminalID,
		Reference:  voucher.Code,
		HTML:       html,
	})
	if err != nil {
		log.Printf("[terminal] WARN: voucher print for %s not queued: %v", voucher.Code, err)
		return false, nil
	}
	return true, nil
}
