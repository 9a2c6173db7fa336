package services

// 对话中使用的固定文案
const (
	WelcomeText       = "嘿，歡迎來到 Inkslap！我是 Inky 😄，今天可以怎麼幫您呢？請問是需要協助關於客製化商品的部分，還是有其他需求呢？"
	LoadingText       = "正在查詢中，請稍等..."
	SearchPromptText  = "想找特定商品嗎？輸入關鍵字試試看吧 (例如：辦公小物、送男友、收納)"
	LoginPromptText   = "請先登入以查看您的訂單資訊"
	LoginSuccessText  = "登入成功！以下是您最近的訂單記錄："
	OrderSummaryText  = "以下是您最近的訂單記錄："
	ProductResultText = "以下是符合您需求的推薦商品："
	EmptyReplyText    = "抱歉，沒有收到回覆內容，請稍後再試。"
	SaveFailedText    = "保存對話記錄失敗"

	noResultsTemplate    = "抱歉，找不到符合「%s」的贈品😢\n可以試試其他關鍵字，例如「生活用品」、「療癒系」、「科技感」等～"
	productClickTemplate = "您點擊了商品：%s，價格：%s。商品詳情頁面開發中..."
)

// AboutText 平台介绍
const AboutText = `了解 Inkslap 禮贈平台

🎁 專業客製化禮贈品平台
Inkslap 是台灣領先的客製化禮贈品平台，專為企業和個人提供高品質的客製化商品服務。

✨ 我們的服務特色
• 🎨 專業設計團隊，提供客製化設計服務
• 🏭 嚴選優質供應商，確保商品品質
• 📦 一站式服務，從設計到配送全程包辦
• 💰 透明化報價，無隱藏費用
• ⚡ 快速交期，滿足您的時程需求

🛍️ 商品類別
文具用品、生活雜貨、服飾配件、3C周邊、環保商品、節慶禮品等，超過千種商品任您選擇。`

// 快捷选项
const (
	OptionGift  = "gift"
	OptionOrder = "order"
	OptionAbout = "about"
)

// Option 快捷选项
type Option struct {
	Key      string `json:"key"`
	Text     string `json:"text"`
	Response string `json:"response"`
}

// Options 返回快捷选项，顺序与界面显示一致
func Options() []Option {
	return []Option{
		{Key: OptionGift, Text: "尋找贈品", Response: "請問您的送禮需求是什麼？（如送禮目的、數量、預算）"},
		{Key: OptionOrder, Text: "查詢訂單", Response: "想查詢甚麼訂單？"},
		{Key: OptionAbout, Text: "了解 Inkslap 禮贈平台", Response: "想了解 Inkslap的甚麼問題?"},
	}
}

func findOption(key string) (Option, bool) {
	for _, o := range Options() {
		if o.Key == key {
			return o, true
		}
	}
	return Option{}, false
}
