package services

import "chat_widget_mini/internal/models"

// 订单状态颜色
const (
	statusColorProcessing = "#ff9500"
	statusColorCompleted  = "#28a745"
	statusColorCancelled  = "#dc3545"
)

// MockOrders 模拟的订单列表，登录后展示
func MockOrders() []models.Order {
	return []models.Order{
		{
			ID: "202506010001", Date: "2025/05/06", Status: "處理中", StatusColor: statusColorProcessing,
			CustomerName: "陳同學", PaymentMethod: "付款方式", TotalAmount: 125000,
			Items: []models.OrderItem{
				{Name: "客製化馬克杯", Quantity: 100, UnitPrice: 150},
				{Name: "環保購物袋", Quantity: 200, UnitPrice: 85},
			},
		},
		{
			ID: "202506010002", Date: "2025/05/06", Status: "處理中", StatusColor: statusColorProcessing,
			CustomerName: "陳同學", PaymentMethod: "付款方式", TotalAmount: 125000,
			Items: []models.OrderItem{
				{Name: "客製化T恤", Quantity: 50, UnitPrice: 280},
			},
		},
		{
			ID: "202506010003", Date: "2025/05/06", Status: "處理中", StatusColor: statusColorProcessing,
			CustomerName: "陳同學", PaymentMethod: "付款方式", TotalAmount: 125000,
			Items: []models.OrderItem{
				{Name: "客製化筆記本", Quantity: 300, UnitPrice: 120},
			},
		},
		{
			ID: "202505280004", Date: "2025/05/28", Status: "已完成", StatusColor: statusColorCompleted,
			CustomerName: "陳同學", PaymentMethod: "信用卡", TotalAmount: 89500,
			Items: []models.OrderItem{
				{Name: "客製化帆布袋", Quantity: 150, UnitPrice: 95},
				{Name: "環保水瓶", Quantity: 80, UnitPrice: 280},
			},
		},
		{
			ID: "202505250005", Date: "2025/05/25", Status: "已完成", StatusColor: statusColorCompleted,
			CustomerName: "陳同學", PaymentMethod: "轉帳", TotalAmount: 67800,
			Items: []models.OrderItem{
				{Name: "客製化筆記本", Quantity: 200, UnitPrice: 120},
				{Name: "原子筆組合", Quantity: 300, UnitPrice: 89},
			},
		},
		{
			ID: "202505200006", Date: "2025/05/20", Status: "已完成", StatusColor: statusColorCompleted,
			CustomerName: "陳同學", PaymentMethod: "信用卡", TotalAmount: 156000,
			Items: []models.OrderItem{
				{Name: "客製化保溫杯", Quantity: 100, UnitPrice: 380},
				{Name: "環保餐具組", Quantity: 200, UnitPrice: 190},
			},
		},
		{
			ID: "202505150007", Date: "2025/05/15", Status: "已取消", StatusColor: statusColorCancelled,
			CustomerName: "陳同學", PaymentMethod: "信用卡", TotalAmount: 45000,
			Items: []models.OrderItem{
				{Name: "客製化鑰匙圈", Quantity: 500, UnitPrice: 90},
			},
		},
		{
			ID: "202505100008", Date: "2025/05/10", Status: "已完成", StatusColor: statusColorCompleted,
			CustomerName: "陳同學", PaymentMethod: "轉帳", TotalAmount: 234000,
			Items: []models.OrderItem{
				{Name: "客製化外套", Quantity: 60, UnitPrice: 1200},
				{Name: "客製化帽子", Quantity: 120, UnitPrice: 450},
			},
		},
		{
			ID: "202505050009", Date: "2025/05/05", Status: "已完成", StatusColor: statusColorCompleted,
			CustomerName: "陳同學", PaymentMethod: "信用卡", TotalAmount: 178500,
			Items: []models.OrderItem{
				{Name: "客製化滑鼠墊", Quantity: 300, UnitPrice: 85},
				{Name: "USB隨身碟", Quantity: 150, UnitPrice: 890},
			},
		},
		{
			ID: "202504300010", Date: "2025/04/30", Status: "已完成", StatusColor: statusColorCompleted,
			CustomerName: "陳同學", PaymentMethod: "轉帳", TotalAmount: 98700,
			Items: []models.OrderItem{
				{Name: "客製化貼紙", Quantity: 1000, UnitPrice: 35},
				{Name: "環保購物袋", Quantity: 200, UnitPrice: 320},
			},
		},
	}
}
