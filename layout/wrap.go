package layout

import "strings"

// WidthFunc 返回 text 的度量宽度（像素）。
type WidthFunc func(text string) (int, error)

// antialiasSlack 是每个词宽度上扣除的 1 像素，抵消抗锯齿在字形边缘造成的溢出。
const antialiasSlack = 1

// WrapState 保存一次折行过程中的可变状态，只在单次 Wrap 调用内存活。
type WrapState struct {
	Lines []string // 已完成的行
	Line  string   // 当前正在累积的行
	Width int      // 当前行在最近一次追加后的宽度
}

// place 将 seg 追加到当前行；放不下时换行并以 seg 开始新行。
func (s *WrapState) place(seg string, w, limit int) {
	if s.Width+w <= limit {
		s.Line += seg
		s.Width += w
		return
	}
	s.newLine(seg, w)
}

func (s *WrapState) newLine(seg string, w int) {
	if s.Line != "" || len(s.Lines) > 0 {
		s.Lines = append(s.Lines, s.Line)
	}
	s.Line = seg
	s.Width = w
}

// String joins the finished lines and the pending one with "\n".
func (s *WrapState) String() string {
	if len(s.Lines) == 0 {
		return s.Line
	}
	return strings.Join(s.Lines, "\n") + "\n" + s.Line
}

// Wrap 使用贪心算法把 text 折成不超过 boxWidth 的多行，行间以 "\n" 分隔。
// boxWidth <= 0 或整段文本已能放下时原样返回。单个词超宽时按字符拆分；
// 连一个字符都放不下时接受溢出，把剩余部分单独成行。
func Wrap(text string, boxWidth int, width WidthFunc) (string, error) {
	if boxWidth <= 0 || text == "" {
		return text, nil
	}
	total, err := width(text)
	if err != nil {
		return "", err
	}
	if total <= boxWidth {
		return text, nil
	}

	tokens := strings.Fields(text)
	state := &WrapState{}
	for i, token := range tokens {
		if i+1 < len(tokens) {
			token += " "
		}
		w, err := width(token)
		if err != nil {
			return "", err
		}
		w -= antialiasSlack

		switch {
		case state.Width+w <= boxWidth:
			state.Line += token
			state.Width += w
		case w > boxWidth:
			if err := splitToken(state, token, boxWidth, width); err != nil {
				return "", err
			}
		default:
			state.newLine(token, w)
		}
	}
	return state.String(), nil
}

// splitToken 把超宽 token 切成若干不超过 limit 的前缀依次放置。
// 前缀宽度随字符数单调不减，因此每段的切点用二分查找：每段只需 O(log n) 次度量。
// 每轮剩余字符严格减少，因此必然终止。
func splitToken(state *WrapState, token string, limit int, width WidthFunc) error {
	rest := token
	for rest != "" {
		w, err := width(rest)
		if err != nil {
			return err
		}
		if w <= limit {
			state.place(rest, w, limit)
			return nil
		}

		runes := []rune(rest)
		cut, cutWidth, err := widestPrefix(runes, limit, width)
		if err != nil {
			return err
		}
		if cut == 0 {
			// 单个字符已超宽：整段剩余内容独占一行
			state.newLine(rest, w)
			return nil
		}
		state.place(string(runes[:cut]), cutWidth, limit)
		rest = string(runes[cut:])
	}
	return nil
}

// widestPrefix 在 [1, len(runes)-1] 中二分查找宽度不超过 limit 的最长前缀。
// 没有任何前缀放得下时返回 cut == 0。
func widestPrefix(runes []rune, limit int, width WidthFunc) (cut, cutWidth int, err error) {
	lo, hi := 1, len(runes)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		pw, err := width(string(runes[:mid]))
		if err != nil {
			return 0, 0, err
		}
		if pw <= limit {
			cut, cutWidth = mid, pw
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return cut, cutWidth, nil
}

// SplitLines splits a wrapped string into its lines.
func SplitLines(wrapped string) []string {
	return strings.Split(wrapped, "\n")
}
