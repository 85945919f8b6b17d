// SPDX-License-Identifier: Unlicense OR MIT

// Package winsys declares the Win32 calls used by the windows backend.
package winsys

import (
	"fmt"
	"unsafe"

	syscall "golang.org/x/sys/windows"
)

type WndClassEx struct {
	CbSize        uint32
	Style         uint32
	LpfnWndProc   uintptr
	CnClsExtra    int32
	CbWndExtra    int32
	HInstance     syscall.Handle
	HIcon         syscall.Handle
	HCursor       syscall.Handle
	HbrBackground syscall.Handle
	LpszMenuName  *uint16
	LpszClassName *uint16
	HIconSm       syscall.Handle
}

type Msg struct {
	Hwnd     syscall.Handle
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       Point
	LPrivate uint32
}

type Point struct {
	X, Y int32
}

type Rect struct {
	Left, Top, Right, Bottom int32
}

type RgnDataHeader struct {
	DwSize   uint32
	IType    uint32
	NCount   uint32
	NRgnSize uint32
	RcBound  Rect
}

type MonitorInfo struct {
	CbSize   uint32
	Monitor  Rect
	WorkArea Rect
	DwFlags  uint32
}

type BitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type BitmapInfo struct {
	Header BitmapInfoHeader
	Colors [3]uint32
}

type TrackMouseEventStruct struct {
	CbSize      uint32
	DwFlags     uint32
	HwndTrack   syscall.Handle
	DwHoverTime uint32
}

const (
	CS_HREDRAW = 0x0002
	CS_VREDRAW = 0x0001
	CS_OWNDC   = 0x0020

	CW_USEDEFAULT = -0x80000000

	WS_OVERLAPPEDWINDOW = 0x00CF0000
	WS_CHILD            = 0x40000000
	WS_VISIBLE          = 0x10000000
	WS_CLIPSIBLINGS     = 0x04000000
	WS_CLIPCHILDREN     = 0x02000000

	WS_EX_APPWINDOW  = 0x00040000
	WS_EX_WINDOWEDGE = 0x00000100

	WM_CANCELMODE  = 0x001F
	WM_CLOSE       = 0x0010
	WM_DESTROY     = 0x0002
	WM_ERASEBKGND  = 0x0014
	WM_KILLFOCUS   = 0x0008
	WM_LBUTTONDOWN = 0x0201
	WM_LBUTTONUP   = 0x0202
	WM_MBUTTONDOWN = 0x0207
	WM_MBUTTONUP   = 0x0208
	WM_MOUSELEAVE  = 0x02A3
	WM_MOVE        = 0x0003
	WM_MOUSEMOVE   = 0x0200
	WM_MOUSEWHEEL  = 0x020A
	WM_MOUSEHWHEEL = 0x020E
	WM_PAINT       = 0x000F
	WM_QUIT        = 0x0012
	WM_RBUTTONDOWN = 0x0204
	WM_RBUTTONUP   = 0x0205
	WM_SETCURSOR   = 0x0020
	WM_SETFOCUS    = 0x0007
	WM_TIMER       = 0x0113
	WM_XBUTTONDOWN = 0x020B
	WM_XBUTTONUP   = 0x020C
	WM_USER        = 0x0400

	XBUTTON1 = 1
	XBUTTON2 = 2

	WHEEL_DELTA = 120

	PM_NOREMOVE = 0x0000
	PM_REMOVE   = 0x0001

	SW_SHOWDEFAULT = 10
	SW_SHOW        = 5
	SW_HIDE        = 0

	HTCLIENT = 1

	TME_LEAVE = 0x00000002

	IDC_ARROW    = 32512
	IDC_IBEAM    = 32513
	IDC_WAIT     = 32514
	IDC_CROSS    = 32515
	IDC_HAND     = 32649
	IDC_NO       = 32648
	IDC_SIZEWE   = 32644
	IDC_SIZENS   = 32645
	IDC_SIZENWSE = 32642
	IDC_SIZENESW = 32643

	BI_RGB         = 0
	BI_BITFIELDS   = 3
	DIB_RGB_COLORS = 0

	NULLREGION    = 1
	SIMPLEREGION  = 2
	COMPLEXREGION = 3
	RGN_ERROR     = 0

	RDH_RECTANGLES = 1

	VREFRESH = 116

	MONITOR_DEFAULTTONEAREST = 2

	LOGPIXELSX = 88

	USER_DEFAULT_SCREEN_DPI = 96
)

// HWND_MESSAGE parents message-only windows.
var HWND_MESSAGE = ^syscall.Handle(2) // (HWND)-3

var (
	kernel32          = syscall.NewLazySystemDLL("kernel32.dll")
	_GetModuleHandleW = kernel32.NewProc("GetModuleHandleW")

	user32              = syscall.NewLazySystemDLL("user32.dll")
	_AdjustWindowRectEx = user32.NewProc("AdjustWindowRectEx")
	_ClientToScreen     = user32.NewProc("ClientToScreen")
	_CreateWindowEx     = user32.NewProc("CreateWindowExW")
	_DefWindowProc      = user32.NewProc("DefWindowProcW")
	_DestroyWindow      = user32.NewProc("DestroyWindow")
	_DispatchMessage    = user32.NewProc("DispatchMessageW")
	_GetClientRect      = user32.NewProc("GetClientRect")
	_GetDC              = user32.NewProc("GetDC")
	_GetDpiForWindow    = user32.NewProc("GetDpiForWindow")
	_GetMessage         = user32.NewProc("GetMessageW")
	_GetMonitorInfo     = user32.NewProc("GetMonitorInfoW")
	_GetUpdateRgn       = user32.NewProc("GetUpdateRgn")
	_KillTimer          = user32.NewProc("KillTimer")
	_LoadCursor         = user32.NewProc("LoadCursorW")
	_MonitorFromWindow  = user32.NewProc("MonitorFromWindow")
	_PeekMessage        = user32.NewProc("PeekMessageW")
	_PostMessage        = user32.NewProc("PostMessageW")
	_PostQuitMessage    = user32.NewProc("PostQuitMessage")
	_RegisterClassExW   = user32.NewProc("RegisterClassExW")
	_ReleaseCapture     = user32.NewProc("ReleaseCapture")
	_ReleaseDC          = user32.NewProc("ReleaseDC")
	_SetCapture         = user32.NewProc("SetCapture")
	_SetCursor          = user32.NewProc("SetCursor")
	_SetCursorPos       = user32.NewProc("SetCursorPos")
	_SetProcessDPIAware = user32.NewProc("SetProcessDPIAware")
	_SetTimer           = user32.NewProc("SetTimer")
	_SetWindowText      = user32.NewProc("SetWindowTextW")
	_ShowWindow         = user32.NewProc("ShowWindow")
	_TrackMouseEvent    = user32.NewProc("TrackMouseEvent")
	_TranslateMessage   = user32.NewProc("TranslateMessage")
	_UnregisterClass    = user32.NewProc("UnregisterClassW")
	_ValidateRect       = user32.NewProc("ValidateRect")

	gdi32              = syscall.NewLazySystemDLL("gdi32.dll")
	_CreateRectRgn     = gdi32.NewProc("CreateRectRgn")
	_DeleteObject      = gdi32.NewProc("DeleteObject")
	_GetDeviceCaps     = gdi32.NewProc("GetDeviceCaps")
	_GetRegionData     = gdi32.NewProc("GetRegionData")
	_SetDIBitsToDevice = gdi32.NewProc("SetDIBitsToDevice")
)

func GetModuleHandle() (syscall.Handle, error) {
	h, _, err := _GetModuleHandleW.Call(uintptr(0))
	if h == 0 {
		return 0, fmt.Errorf("GetModuleHandleW: %v", err)
	}
	return syscall.Handle(h), nil
}

func AdjustWindowRectEx(r *Rect, dwStyle uint32, bMenu int, dwExStyle uint32) {
	_AdjustWindowRectEx.Call(uintptr(unsafe.Pointer(r)), uintptr(dwStyle), uintptr(bMenu), uintptr(dwExStyle))
}

func ClientToScreen(hwnd syscall.Handle, p *Point) {
	_ClientToScreen.Call(uintptr(hwnd), uintptr(unsafe.Pointer(p)))
}

func CreateWindowEx(dwExStyle uint32, lpClassName uint16, lpWindowName string, dwStyle uint32, x, y, w, h int32, hWndParent, hMenu, hInstance syscall.Handle, lpParam uintptr) (syscall.Handle, error) {
	hwnd, _, err := _CreateWindowEx.Call(
		uintptr(dwExStyle),
		uintptr(lpClassName),
		uintptr(unsafe.Pointer(syscall.StringToUTF16Ptr(lpWindowName))),
		uintptr(dwStyle),
		uintptr(x), uintptr(y),
		uintptr(w), uintptr(h),
		uintptr(hWndParent),
		uintptr(hMenu),
		uintptr(hInstance),
		lpParam)
	if hwnd == 0 {
		return 0, fmt.Errorf("CreateWindowEx: %v", err)
	}
	return syscall.Handle(hwnd), nil
}

func DefWindowProc(hwnd syscall.Handle, msg uint32, wparam, lparam uintptr) uintptr {
	r, _, _ := _DefWindowProc.Call(uintptr(hwnd), uintptr(msg), wparam, lparam)
	return r
}

func DestroyWindow(hwnd syscall.Handle) {
	_DestroyWindow.Call(uintptr(hwnd))
}

func DispatchMessage(m *Msg) {
	_DispatchMessage.Call(uintptr(unsafe.Pointer(m)))
}

func GetClientRect(hwnd syscall.Handle, r *Rect) {
	_GetClientRect.Call(uintptr(hwnd), uintptr(unsafe.Pointer(r)))
}

func GetDC(hwnd syscall.Handle) (syscall.Handle, error) {
	hdc, _, err := _GetDC.Call(uintptr(hwnd))
	if hdc == 0 {
		return 0, fmt.Errorf("GetDC: %v", err)
	}
	return syscall.Handle(hdc), nil
}

// GetDpiForWindow is available from Windows 10 1607; callers fall back to
// GetDeviceCaps(LOGPIXELSX) when it is missing.
func GetDpiForWindow(hwnd syscall.Handle) (int, bool) {
	if err := _GetDpiForWindow.Find(); err != nil {
		return 0, false
	}
	dpi, _, _ := _GetDpiForWindow.Call(uintptr(hwnd))
	return int(dpi), true
}

func GetDeviceCaps(hdc syscall.Handle, index int32) int {
	c, _, _ := _GetDeviceCaps.Call(uintptr(hdc), uintptr(index))
	return int(c)
}

func GetMessage(m *Msg, hwnd syscall.Handle, wMsgFilterMin, wMsgFilterMax uint32) int32 {
	r, _, _ := _GetMessage.Call(
		uintptr(unsafe.Pointer(m)),
		uintptr(hwnd),
		uintptr(wMsgFilterMin),
		uintptr(wMsgFilterMax))
	return int32(r)
}

func GetMonitorInfo(hMonitor syscall.Handle) (MonitorInfo, bool) {
	var mi MonitorInfo
	mi.CbSize = uint32(unsafe.Sizeof(mi))
	r, _, _ := _GetMonitorInfo.Call(uintptr(hMonitor), uintptr(unsafe.Pointer(&mi)))
	return mi, r != 0
}

// GetUpdateRects returns the window's pending damage as a rectangle list
// and clears nothing; callers validate after painting.
func GetUpdateRects(hwnd syscall.Handle) []Rect {
	rgn, _, _ := _CreateRectRgn.Call(0, 0, 0, 0)
	if rgn == 0 {
		return nil
	}
	defer _DeleteObject.Call(rgn)
	kind, _, _ := _GetUpdateRgn.Call(uintptr(hwnd), rgn, 0)
	if kind == RGN_ERROR || kind == NULLREGION {
		return nil
	}
	size, _, _ := _GetRegionData.Call(rgn, 0, 0)
	if size == 0 {
		return nil
	}
	buf := make([]byte, size)
	n, _, _ := _GetRegionData.Call(rgn, size, uintptr(unsafe.Pointer(&buf[0])))
	if n == 0 {
		return nil
	}
	hdr := (*RgnDataHeader)(unsafe.Pointer(&buf[0]))
	if hdr.IType != RDH_RECTANGLES || hdr.NCount == 0 {
		return nil
	}
	rects := make([]Rect, hdr.NCount)
	src := unsafe.Slice((*Rect)(unsafe.Pointer(&buf[unsafe.Sizeof(*hdr)])), hdr.NCount)
	copy(rects, src)
	return rects
}

func KillTimer(hwnd syscall.Handle, nIDEvent uintptr) error {
	r, _, err := _KillTimer.Call(uintptr(hwnd), nIDEvent)
	if r == 0 {
		return fmt.Errorf("KillTimer: %v", err)
	}
	return nil
}

func LoadCursor(curID uint16) (syscall.Handle, error) {
	h, _, err := _LoadCursor.Call(0, uintptr(curID))
	if h == 0 {
		return 0, fmt.Errorf("LoadCursorW: %v", err)
	}
	return syscall.Handle(h), nil
}

func MonitorFromWindow(hwnd syscall.Handle) syscall.Handle {
	r, _, _ := _MonitorFromWindow.Call(uintptr(hwnd), MONITOR_DEFAULTTONEAREST)
	return syscall.Handle(r)
}

func PeekMessage(m *Msg, hwnd syscall.Handle, wMsgFilterMin, wMsgFilterMax, wRemoveMsg uint32) bool {
	r, _, _ := _PeekMessage.Call(
		uintptr(unsafe.Pointer(m)),
		uintptr(hwnd),
		uintptr(wMsgFilterMin),
		uintptr(wMsgFilterMax),
		uintptr(wRemoveMsg))
	return r != 0
}

func PostMessage(hwnd syscall.Handle, msg uint32, wParam, lParam uintptr) error {
	r, _, err := _PostMessage.Call(uintptr(hwnd), uintptr(msg), wParam, lParam)
	if r == 0 {
		return fmt.Errorf("PostMessage: %v", err)
	}
	return nil
}

func PostQuitMessage(exitCode uintptr) {
	_PostQuitMessage.Call(exitCode)
}

func RegisterClassEx(cls *WndClassEx) (uint16, error) {
	a, _, err := _RegisterClassExW.Call(uintptr(unsafe.Pointer(cls)))
	if a == 0 {
		return 0, fmt.Errorf("RegisterClassExW: %v", err)
	}
	return uint16(a), nil
}

func ReleaseCapture() {
	_ReleaseCapture.Call()
}

func ReleaseDC(hwnd, hdc syscall.Handle) {
	_ReleaseDC.Call(uintptr(hwnd), uintptr(hdc))
}

func SetCapture(hwnd syscall.Handle) {
	_SetCapture.Call(uintptr(hwnd))
}

func SetCursor(h syscall.Handle) {
	_SetCursor.Call(uintptr(h))
}

func SetCursorPos(x, y int32) {
	_SetCursorPos.Call(uintptr(x), uintptr(y))
}

func SetProcessDPIAware() {
	_SetProcessDPIAware.Call()
}

func SetTimer(hwnd syscall.Handle, nIDEvent uintptr, uElapse uint32) error {
	r, _, err := _SetTimer.Call(uintptr(hwnd), nIDEvent, uintptr(uElapse), 0)
	if r == 0 {
		return fmt.Errorf("SetTimer: %v", err)
	}
	return nil
}

func SetWindowText(hwnd syscall.Handle, text string) {
	_SetWindowText.Call(uintptr(hwnd), uintptr(unsafe.Pointer(syscall.StringToUTF16Ptr(text))))
}

func SetDIBitsToDevice(hdc syscall.Handle, xDest, yDest int32, w, h uint32, xSrc, ySrc int32, startScan, cLines uint32, bits []uint32, bmi *BitmapInfo) int {
	r, _, _ := _SetDIBitsToDevice.Call(
		uintptr(hdc),
		uintptr(xDest), uintptr(yDest),
		uintptr(w), uintptr(h),
		uintptr(xSrc), uintptr(ySrc),
		uintptr(startScan), uintptr(cLines),
		uintptr(unsafe.Pointer(&bits[0])),
		uintptr(unsafe.Pointer(bmi)),
		DIB_RGB_COLORS)
	return int(r)
}

func ShowWindow(hwnd syscall.Handle, nCmdShow int32) {
	_ShowWindow.Call(uintptr(hwnd), uintptr(nCmdShow))
}

func TrackMouseLeave(hwnd syscall.Handle) {
	tme := TrackMouseEventStruct{
		DwFlags:   TME_LEAVE,
		HwndTrack: hwnd,
	}
	tme.CbSize = uint32(unsafe.Sizeof(tme))
	_TrackMouseEvent.Call(uintptr(unsafe.Pointer(&tme)))
}

func TranslateMessage(m *Msg) {
	_TranslateMessage.Call(uintptr(unsafe.Pointer(m)))
}

func UnregisterClass(cls uint16, hInst syscall.Handle) {
	_UnregisterClass.Call(uintptr(cls), uintptr(hInst))
}

func ValidateRect(hwnd syscall.Handle) {
	_ValidateRect.Call(uintptr(hwnd), 0)
}
