package render

import (
	"fmt"
	"strings"

	"chat_widget_mini/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.TraditionalChinese)

// FormatAmount 金额加千分位
func FormatAmount(n int) string {
	return amountPrinter.Sprintf("%d", n)
}

// Text 将消息渲染为终端显示的文本
func Text(m models.Message) string {
	var b strings.Builder

	speaker := "Inky"
	if m.Role == models.RoleUser {
		speaker = "您"
	}
	if m.Time != "" {
		fmt.Fprintf(&b, "[%s] ", m.Time)
	}
	fmt.Fprintf(&b, "%s #%d: ", speaker, m.ID)

	switch m.Kind {
	case models.KindProductSearch:
		b.WriteString(m.Content)
		writeProducts(&b, m.ID, m.ProductData)
	case models.KindOrderSummary:
		b.WriteString(m.Content)
		writeOrders(&b, m.ID, m.OrderData)
	case models.KindLoginPrompt:
		b.WriteString(m.Content)
		b.WriteString("\n  （輸入 /login 立即登入）")
	case models.KindSearchPrompt:
		b.WriteString(m.Content)
	case models.KindNoResults:
		b.WriteString(m.Content)
		b.WriteString("\n  （輸入 /search 換個關鍵字，或 /menu 回主選單）")
	case models.KindLoading:
		b.WriteString("⏳ " + m.Content)
	case models.KindError:
		b.WriteString("⚠️ " + m.Content)
	default:
		b.WriteString(PlainText(m.Content))
	}
	return b.String()
}

func writeProducts(b *strings.Builder, id uint64, p *models.ProductSearchPayload) {
	if p == nil {
		return
	}
	for i, product := range p.Visible() {
		fmt.Fprintf(b, "\n  %d. %s  %s", i+1, product.Name, product.Price)
		if product.Category != "" {
			fmt.Fprintf(b, "  [%s]", product.Category)
		}
		if product.Description != "" {
			fmt.Fprintf(b, "\n     %s", product.Description)
		}
	}
	if p.HasMore() {
		fmt.Fprintf(b, "\n  還有 %d 項商品（輸入 /more %d 查看更多）",
			len(p.TotalProducts)-p.DisplayedCount, id)
	} else if len(p.TotalProducts) > models.PageSize {
		b.WriteString("\n  ✅ 已顯示全部商品囉～")
	}
}

func writeOrders(b *strings.Builder, id uint64, p *models.OrderSummaryPayload) {
	if p == nil {
		return
	}
	if p.DisplayedCount <= models.PageSize {
		b.WriteString("\n  以下是您最近的三筆訂單記錄：")
	} else {
		fmt.Fprintf(b, "\n  以下是您的訂單記錄（顯示 %d 筆）：", p.DisplayedCount)
	}
	for _, o := range p.Orders {
		fmt.Fprintf(b, "\n  %s  %s  %s  客戶：%s  %s  付款金額：$%s",
			o.Date, o.ID, o.Status, o.CustomerName, o.PaymentMethod, FormatAmount(o.TotalAmount))
	}
	if len(p.Orders) == 0 {
		b.WriteString("\n  如果您需要更多資訊或其他需求，請隨時告訴我！")
	}
	switch {
	case p.HasMore:
		fmt.Fprintf(b, "\n  （輸入 /more %d 查看更多）", id)
	case p.AllLoaded && len(p.Orders) > models.PageSize:
		b.WriteString("\n  ✅ 已顯示全部訂單囉～")
	}
}
