package inspection

// Template is a quick-issue shortcut: a fixed title with a default grade.
type Template struct {
	Label       string `json:"label"`
	Grade       Grade  `json:"grade"`
	Description string `json:"description"`
}

var bedTemplates = []Template{
	{Label: "遺留物/垃圾", Grade: GradeA, Description: "含自身用品/衣物/垃圾 (考核:不通過)"},
	{Label: "毛髮/碎屑/蟲屍", Grade: GradeA, Description: "地板/抽屜明顯可見 (考核:不通過)"},
	{Label: "備品未補/全空", Grade: GradeA, Description: "器皿/拖鞋/水全空 (考核:不通過)"},
	{Label: "冰箱/器皿髒污", Grade: GradeA, Description: "內部污漬/杯具有水痕 (考核:不通過)"},
	{Label: "陽台/戶外區髒污", Grade: GradeA, Description: "家具/地板/欄杆髒 (考核:不通過)"},
	{Label: "鋪床污漬/破損", Grade: GradeA, Description: "床單/被套有髒污 (考核:不通過)"},
	{Label: "備品過期", Grade: GradeB, Description: "食品/飲料過期 (考核:-10分)"},
	{Label: "高處/死角灰塵", Grade: GradeB, Description: "樓梯/檻燈/角落積塵 (考核:-10分)"},
	{Label: "鋪床不美觀/皺摺", Grade: GradeC, Description: "大於A5紙皺摺/不平 (考核:-2分)"},
	{Label: "衣架/保險箱失誤", Grade: GradeC, Description: "數量不對/收納錯誤/有雜物 (考核:-2分)"},
	{Label: "枕頭/抱枕擺放", Grade: GradeC, Description: "方向錯誤/凌亂 (考核:-2分)"},
	{Label: "空調/燈光未重置", Grade: GradeC, Description: "溫度風量/門口燈 (考核:-2分)"},
	{Label: "衛生紙/備品微調", Grade: GradeC, Description: "無三角形/污漬/未補滿 (考核:-2分)"},
}

var waterTemplates = []Template{
	{Label: "熱水壺/杯盤髒污", Grade: GradeA, Description: "水漬/茶垢/破損 (考核:不通過)"},
	{Label: "馬桶汙垢/尿漬", Grade: GradeA, Description: "未清潔乾淨 (考核:不通過)"},
	{Label: "浴池青苔/髒汙", Grade: GradeA, Description: "內部/溢流區未刷 (考核:不通過)"},
	{Label: "排水孔毛髮/異味", Grade: GradeA, Description: "堵塞/有垃圾 (考核:不通過)"},
	{Label: "鏡面/玻璃嚴重水痕", Grade: GradeA, Description: "光照有明顯痕跡 (考核:不通過)"},
	{Label: "地板濕滑/積水", Grade: GradeA, Description: "未擦乾 (考核:不通過)"},
	{Label: "垃圾桶未清", Grade: GradeA, Description: "生理桶/垃圾桶有垃圾 (考核:不通過)"},
	{Label: "嚴重水垢堆積", Grade: GradeB, Description: "溢流牆/出水口 (考核:-10分)"},
	{Label: "溫泉水質/溫度", Grade: GradeB, Description: "雜質/過高過低 (考核:-10分)"},
	{Label: "高處/死角蜘蛛網", Grade: GradeB, Description: "九宮格窗/天花板/出風口 (考核:-10分)"},
	{Label: "備品補充/復歸", Grade: GradeC, Description: "捲筒紙/洗手乳距離/毛巾 (考核:-3~-5分)"},
	{Label: "五金水垢/皂垢", Grade: GradeC, Description: "水龍頭/洗手乳瓶底 (考核:-2分)"},
	{Label: "設備歸位微調", Grade: GradeC, Description: "蓮蓬頭/木桶/水塞 (考核:-2分)"},
}

// Templates returns the quick-issue list for team in display order.
func Templates(team Team) []Template {
	var src []Template
	switch team {
	case TeamBed:
		src = bedTemplates
	case TeamWater:
		src = waterTemplates
	default:
		return nil
	}
	return append([]Template(nil), src...)
}

// FindTemplate looks up a quick issue by its exact label.
func FindTemplate(team Team, label string) (Template, bool) {
	for _, t := range Templates(team) {
		if t.Label == label {
			return t, true
		}
	}
	return Template{}, false
}
