package rewrite

import (
	"fmt"
	"strings"
)

// SystemPrompt frames the model as a Chinese long-form editor.
const SystemPrompt = `你是一名资深中文科技与商业内容编辑。你的任务是把访谈、播客或演讲的逐字稿改写成一篇结构清晰、信息密度高的中文长文。
忠实于原文观点，不编造事实；保留关键数据、人名与专有名词（首次出现时附原文）。
只输出 Markdown 正文，不要输出代码块围栏或额外说明。`

// userPromptTemplate fixes the section layout downstream parsers rely on.
const userPromptTemplate = `请按以下结构改写：

# <中文标题>

## 嘉宾信息
- **姓名** - 身份/职位（每位嘉宾一行）

## 金句
1. “……”
2. “……”
（共 5 条，每条不超过 80 字）

## 摘要
（300 字以内的全文摘要）

## <正文小节标题>
（按主题分为若干小节，整理成连贯的文章）

内容信息：
- 原标题：%s
- 频道：%s
- 链接：%s

逐字稿：
%s`

// BuildUserPrompt renders the per-item prompt.
func BuildUserPrompt(req Request, transcript string) string {
	channel := strings.TrimSpace(req.Channel)
	if channel == "" {
		channel = "未知"
	}
	return fmt.Sprintf(userPromptTemplate, strings.TrimSpace(req.Title), channel, strings.TrimSpace(req.URL), transcript)
}
